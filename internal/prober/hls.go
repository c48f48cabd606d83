package prober

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/model"
)

// hlsManifestVariants are the playlist file names tried under every
// candidate path.
var hlsManifestVariants = []string{"index.m3u8", "playlist.m3u8", "master.m3u8"}

// HLSProber detects HLS streams by fetching playlist manifests and
// matching the #EXTM3U marker.
type HLSProber struct {
	spec catalog.Spec
	opts options
}

// NewHLSProber creates an HLS prober from its catalog spec.
func NewHLSProber(spec catalog.Spec, opts ...Option) *HLSProber {
	return &HLSProber{
		spec: spec,
		opts: newOptions(spec.Timeout, opts...),
	}
}

// Protocol returns the protocol tag.
func (p *HLSProber) Protocol() string {
	return p.spec.Name
}

// Probe fetches path/variant combinations and confirms those whose body
// carries the HLS playlist marker.
func (p *HLSProber) Probe(ctx context.Context, host string, port int) ([]model.StreamCandidate, error) {
	var candidates []model.StreamCandidate

	for _, path := range p.spec.Paths {
		for _, variant := range hlsManifestVariants {
			if ctx.Err() != nil {
				return candidates, nil
			}

			url := endpointURL("http", host, port, path+"/"+variant)
			if p.probeManifest(ctx, url) {
				p.opts.logger.Info("found HLS stream", "url", url)
				candidates = append(candidates, model.NewStreamCandidate(url, p.spec.Name))
			}
		}
	}

	return candidates, nil
}

// probeManifest performs the retry loop for a single manifest URL.
func (p *HLSProber) probeManifest(ctx context.Context, url string) bool {
	for attempt := 1; attempt <= p.spec.Retries; attempt++ {
		ok, retryable := p.fetch(ctx, url)
		if ok {
			return true
		}
		// A definitive miss (e.g. 404 playlist) will not improve on retry.
		if !retryable || attempt == p.spec.Retries || !pause(ctx, p.opts.retryDelay) {
			return false
		}
	}
	return false
}

// fetch retrieves the manifest once.
// The second return value reports whether another attempt could help:
// transport errors are retryable, a well-formed negative response is not.
func (p *HLSProber) fetch(ctx context.Context, url string) (found, retryable bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, false
	}

	resp, err := p.opts.client.Do(req)
	if err != nil {
		p.opts.logger.Debug("HLS fetch failed", "url", url, "error", err)
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

	return IsHLSPlaylist(string(body)), false
}

// IsHLSPlaylist reports whether body is an HLS playlist.
func IsHLSPlaylist(body string) bool {
	return strings.Contains(body, "#EXTM3U")
}

// IsActiveHLSPlaylist reports whether body is a playlist that references
// media: either a master playlist with stream variants or a media
// playlist with segments. The monitor uses this stricter check for
// liveness, since a bare #EXTM3U header can belong to an idle channel.
func IsActiveHLSPlaylist(body string) bool {
	if !IsHLSPlaylist(body) {
		return false
	}
	return strings.Contains(body, "#EXT-X-STREAM-INF") || strings.Contains(body, "#EXTINF")
}
