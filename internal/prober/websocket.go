package prober

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/model"
)

// SubscribeMessage is the minimal payload sent after the upgrade.
// Stream gateways that speak a subscription protocol answer it; plain
// echo or broadcast servers answer anything. Either reply confirms a
// live socket. The monitor reuses the same exchange when it re-verifies
// WebSocket URLs.
var SubscribeMessage = []byte(`{"action":"subscribe"}`)

// WebSocketProber detects WebSocket stream gateways by completing the
// upgrade handshake, sending a minimal subscribe message, and waiting
// briefly for any reply.
//
// The catalog spec's name doubles as the URL scheme ("ws" or "wss").
type WebSocketProber struct {
	spec   catalog.Spec
	opts   options
	dialer *websocket.Dialer
}

// NewWebSocketProber creates a WebSocket prober from its catalog spec.
func NewWebSocketProber(spec catalog.Spec, opts ...Option) *WebSocketProber {
	return &WebSocketProber{
		spec: spec,
		opts: newOptions(spec.Timeout, opts...),
		dialer: &websocket.Dialer{
			HandshakeTimeout: spec.Timeout,
			TLSClientConfig:  &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // LAN devices use self-signed certs
		},
	}
}

// Protocol returns the protocol tag.
func (p *WebSocketProber) Protocol() string {
	return p.spec.Name
}

// Probe attempts the upgrade handshake on every candidate path.
// Any non-empty reply within the wait window confirms the candidate.
func (p *WebSocketProber) Probe(ctx context.Context, host string, port int) ([]model.StreamCandidate, error) {
	var candidates []model.StreamCandidate

	for _, path := range p.spec.Paths {
		if ctx.Err() != nil {
			return candidates, nil
		}

		url := endpointURL(p.spec.Name, host, port, path)
		if p.probePath(ctx, url) {
			p.opts.logger.Info("found WebSocket stream", "url", url)
			candidates = append(candidates, model.NewStreamCandidate(url, p.spec.Name))
		}
	}

	return candidates, nil
}

// probePath performs the retry loop for one candidate URL.
func (p *WebSocketProber) probePath(ctx context.Context, url string) bool {
	for attempt := 1; attempt <= p.spec.Retries; attempt++ {
		if p.attempt(ctx, url) {
			return true
		}
		if attempt == p.spec.Retries || !pause(ctx, p.opts.retryDelay) {
			return false
		}
	}
	return false
}

// attempt performs a single upgrade + subscribe + reply exchange.
func (p *WebSocketProber) attempt(ctx context.Context, url string) bool {
	conn, resp, err := p.dialer.DialContext(ctx, url, nil)
	if err != nil {
		p.opts.logger.Debug("WebSocket dial failed", "url", url, "error", err)
		return false
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, SubscribeMessage); err != nil {
		p.opts.logger.Debug("WebSocket write failed", "url", url, "error", err)
		return false
	}

	if err := conn.SetReadDeadline(time.Now().Add(p.spec.Timeout)); err != nil {
		return false
	}

	_, reply, err := conn.ReadMessage()
	if err != nil {
		p.opts.logger.Debug("WebSocket read failed", "url", url, "error", err)
		return false
	}

	return len(reply) > 0
}
