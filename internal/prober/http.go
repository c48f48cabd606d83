package prober

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/model"
)

// HTTPProber detects generic HTTP/HTTPS streaming endpoints.
//
// It checks cheaply first: a HEAD request whose content type matches a
// known video type confirms the path without transferring a body. When
// HEAD is inconclusive (non-2xx, missing or ambiguous type), it falls
// back to a GET and sniffs the first few KB for container signatures.
type HTTPProber struct {
	spec catalog.Spec
	opts options
}

// NewHTTPProber creates a generic HTTP/HTTPS prober from its catalog
// spec. The spec name doubles as the URL scheme ("http" or "https").
func NewHTTPProber(spec catalog.Spec, opts ...Option) *HTTPProber {
	return &HTTPProber{
		spec: spec,
		opts: newOptions(spec.Timeout, opts...),
	}
}

// Protocol returns the protocol tag.
func (p *HTTPProber) Protocol() string {
	return p.spec.Name
}

// Probe checks every candidate path with HEAD-then-GET verification.
func (p *HTTPProber) Probe(ctx context.Context, host string, port int) ([]model.StreamCandidate, error) {
	var candidates []model.StreamCandidate

	for _, path := range p.spec.Paths {
		if ctx.Err() != nil {
			return candidates, nil
		}

		url := endpointURL(p.spec.Name, host, port, path)
		if p.probePath(ctx, url) {
			p.opts.logger.Info("found streaming endpoint", "url", url, "protocol", p.spec.Name)
			candidates = append(candidates, model.NewStreamCandidate(url, p.spec.Name))
		}
	}

	return candidates, nil
}

// probePath verifies one URL, HEAD first, GET fallback.
func (p *HTTPProber) probePath(ctx context.Context, url string) bool {
	switch p.head(ctx, url) {
	case headConfirmed:
		return true
	case headRejected:
		return false
	default:
		return p.sniffBody(ctx, url)
	}
}

// headResult classifies the outcome of the HEAD check.
type headResult int

const (
	// headConfirmed means the content type matched a video type.
	headConfirmed headResult = iota
	// headRejected means the endpoint answered decisively non-video
	// (4xx/5xx); no GET fallback is warranted.
	headRejected
	// headInconclusive means HEAD failed or the type was ambiguous;
	// fall back to GET sniffing.
	headInconclusive
)

// head performs the cheap content-type check.
func (p *HTTPProber) head(ctx context.Context, url string) headResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return headRejected
	}

	resp, err := p.opts.client.Do(req)
	if err != nil {
		p.opts.logger.Debug("HEAD failed", "url", url, "error", err)
		return headInconclusive
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return headRejected
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return headInconclusive
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	for _, vct := range p.spec.ContentTypes {
		if strings.Contains(contentType, vct) {
			return headConfirmed
		}
	}
	// Reachable and 2xx but not an obviously-video type: some servers
	// mislabel stream endpoints, so the body gets the final word.
	return headInconclusive
}

// sniffBody fetches a body sample and looks for container signatures.
func (p *HTTPProber) sniffBody(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.opts.client.Do(req)
	if err != nil {
		p.opts.logger.Debug("GET failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	sample, err := io.ReadAll(io.LimitReader(resp.Body, int64(p.opts.sniffBytes)))
	if err != nil || len(sample) == 0 {
		return false
	}

	return SniffStreamContent(sample)
}
