package prober

import (
	"context"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/model"
)

// RTMPProber emits plausible RTMP endpoints for a reachable port.
//
// RTMP cannot be content-verified without implementing its full
// handshake, so connectivity alone is treated as sufficient evidence.
// Every candidate path on a reachable port is emitted, tagged
// model.ConfidenceHeuristic so downstream consumers can distinguish
// these from content-verified discoveries.
//
// The host scanner only invokes probers after the reachability gate has
// passed, so this prober does not re-check the port itself.
type RTMPProber struct {
	spec catalog.Spec
	opts options
}

// NewRTMPProber creates an RTMP prober from its catalog spec.
func NewRTMPProber(spec catalog.Spec, opts ...Option) *RTMPProber {
	return &RTMPProber{
		spec: spec,
		opts: newOptions(spec.Timeout, opts...),
	}
}

// Protocol returns the protocol tag.
func (p *RTMPProber) Protocol() string {
	return p.spec.Name
}

// Probe emits one heuristic candidate per catalog path.
func (p *RTMPProber) Probe(ctx context.Context, host string, port int) ([]model.StreamCandidate, error) {
	candidates := make([]model.StreamCandidate, 0, len(p.spec.Paths))

	for _, path := range p.spec.Paths {
		if ctx.Err() != nil {
			return candidates, nil
		}

		url := endpointURL("rtmp", host, port, path)
		p.opts.logger.Info("found potential RTMP endpoint", "url", url)
		candidates = append(candidates, model.NewHeuristicCandidate(url, p.spec.Name))
	}

	return candidates, nil
}
