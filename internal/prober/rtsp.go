package prober

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/model"
)

// rtspOKSignatures are the status lines that confirm an RTSP endpoint.
var rtspOKSignatures = [][]byte{
	[]byte("RTSP/1.0 200"),
	[]byte("RTSP/1.1 200"),
}

// RTSPProber detects RTSP streams by sending an OPTIONS request on a raw
// TCP connection and matching the status line of the reply.
//
// Design decision: We speak the handshake directly rather than using an
// RTSP library because we only need the status line, not media setup.
// The OPTIONS method is the least intrusive request an RTSP server
// answers, and servers reply to it without authentication.
type RTSPProber struct {
	spec catalog.Spec
	opts options
}

// NewRTSPProber creates an RTSP prober from its catalog spec.
func NewRTSPProber(spec catalog.Spec, opts ...Option) *RTSPProber {
	return &RTSPProber{
		spec: spec,
		opts: newOptions(spec.Timeout, opts...),
	}
}

// Protocol returns the protocol tag.
func (p *RTSPProber) Protocol() string {
	return p.spec.Name
}

// Probe tries every candidate path with an OPTIONS handshake.
// Each path gets up to the configured retry count with a fixed delay
// between attempts; the connection is closed after every attempt
// regardless of outcome. A failed path never aborts the remaining paths.
func (p *RTSPProber) Probe(ctx context.Context, host string, port int) ([]model.StreamCandidate, error) {
	var candidates []model.StreamCandidate

	for _, path := range p.spec.Paths {
		if ctx.Err() != nil {
			return candidates, nil
		}

		url := endpointURL("rtsp", host, port, path)
		if p.probePath(ctx, host, port, url) {
			p.opts.logger.Info("found RTSP stream", "url", url)
			candidates = append(candidates, model.NewStreamCandidate(url, p.spec.Name))
		}
	}

	return candidates, nil
}

// probePath performs the retry loop for one candidate URL.
func (p *RTSPProber) probePath(ctx context.Context, host string, port int, url string) bool {
	for attempt := 1; attempt <= p.spec.Retries; attempt++ {
		if p.attempt(ctx, host, port, url) {
			return true
		}
		if attempt == p.spec.Retries || !pause(ctx, p.opts.retryDelay) {
			return false
		}
	}
	return false
}

// attempt performs a single OPTIONS exchange.
func (p *RTSPProber) attempt(ctx context.Context, host string, port int, url string) bool {
	dialer := net.Dialer{Timeout: p.spec.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		p.opts.logger.Debug("RTSP connect failed", "url", url, "error", err)
		return false
	}
	defer conn.Close()

	deadline := time.Now().Add(p.spec.Timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return false
	}

	request := fmt.Sprintf("OPTIONS %s RTSP/1.0\r\nCSeq: 1\r\n\r\n", url)
	if _, err := conn.Write([]byte(request)); err != nil {
		p.opts.logger.Debug("RTSP write failed", "url", url, "error", err)
		return false
	}

	// 1KB is enough for the status line and headers of any RTSP reply.
	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		p.opts.logger.Debug("RTSP read failed", "url", url, "error", err)
		return false
	}

	for _, sig := range rtspOKSignatures {
		if bytes.Contains(buf[:n], sig) {
			return true
		}
	}
	return false
}
