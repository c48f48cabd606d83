package prober

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/model"
)

// dashManifestVariants are the manifest file names tried under every
// candidate path.
var dashManifestVariants = []string{"manifest.mpd", "stream.mpd", "index.mpd"}

// DASHProber detects MPEG-DASH streams by fetching MPD manifests and
// validating their XML shape.
type DASHProber struct {
	spec catalog.Spec
	opts options
}

// NewDASHProber creates a DASH prober from its catalog spec.
func NewDASHProber(spec catalog.Spec, opts ...Option) *DASHProber {
	return &DASHProber{
		spec: spec,
		opts: newOptions(spec.Timeout, opts...),
	}
}

// Protocol returns the protocol tag.
func (p *DASHProber) Protocol() string {
	return p.spec.Name
}

// Probe fetches path/variant combinations and confirms those whose body
// looks like an MPD manifest.
func (p *DASHProber) Probe(ctx context.Context, host string, port int) ([]model.StreamCandidate, error) {
	var candidates []model.StreamCandidate

	for _, path := range p.spec.Paths {
		for _, variant := range dashManifestVariants {
			if ctx.Err() != nil {
				return candidates, nil
			}

			url := endpointURL("http", host, port, path+"/"+variant)
			if p.probeManifest(ctx, url) {
				p.opts.logger.Info("found DASH stream", "url", url)
				candidates = append(candidates, model.NewStreamCandidate(url, p.spec.Name))
			}
		}
	}

	return candidates, nil
}

// probeManifest performs the retry loop for a single manifest URL.
func (p *DASHProber) probeManifest(ctx context.Context, url string) bool {
	for attempt := 1; attempt <= p.spec.Retries; attempt++ {
		ok, retryable := p.fetch(ctx, url)
		if ok {
			return true
		}
		if !retryable || attempt == p.spec.Retries || !pause(ctx, p.opts.retryDelay) {
			return false
		}
	}
	return false
}

// fetch retrieves the manifest once.
func (p *DASHProber) fetch(ctx context.Context, url string) (found, retryable bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, false
	}

	resp, err := p.opts.client.Do(req)
	if err != nil {
		p.opts.logger.Debug("DASH fetch failed", "url", url, "error", err)
		return false, true
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(p.opts.sniffBytes)))
	if err != nil {
		return false, true
	}

	return IsDASHManifest(string(body)), false
}

// IsDASHManifest reports whether body is an MPD manifest: an XML
// prologue plus either an MPD element or a manifest reference
// (case-insensitive).
func IsDASHManifest(body string) bool {
	if !strings.Contains(body, "<?xml") {
		return false
	}
	return strings.Contains(body, "MPD") || strings.Contains(strings.ToLower(body), "manifest")
}
