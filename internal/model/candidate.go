package model

import "sort"

// StreamCandidate is a fully qualified stream URL that matched a
// protocol-specific handshake on a single (host, port) pair.
// Membership in a candidate set does not imply the stream is currently
// live; only that the handshake once matched.
type StreamCandidate struct {
	// URL is the fully qualified endpoint including scheme, host, port,
	// and path (e.g. "rtsp://192.168.1.20:554/live").
	URL string `json:"url"`

	// Protocol is the protocol tag that produced this candidate
	// (e.g. "rtsp", "hls", "rtmp").
	Protocol string `json:"protocol"`

	// Confidence records whether the candidate was content-verified or
	// inferred from reachability alone.
	Confidence Confidence `json:"confidence"`
}

// NewStreamCandidate creates a content-verified candidate.
func NewStreamCandidate(url, protocol string) StreamCandidate {
	return StreamCandidate{
		URL:        url,
		Protocol:   protocol,
		Confidence: ConfidenceConfirmed,
	}
}

// NewHeuristicCandidate creates a reachability-only candidate.
// Used by protocols that cannot be content-verified without a full
// application handshake (currently RTMP).
func NewHeuristicCandidate(url, protocol string) StreamCandidate {
	return StreamCandidate{
		URL:        url,
		Protocol:   protocol,
		Confidence: ConfidenceHeuristic,
	}
}

// CandidateSet is a set of stream candidates keyed by URL.
// URL identity is case-sensitive string equality.
//
// Design decision: We use a map keyed by URL rather than a slice because
// the same URL can be discovered through multiple protocol probers
// (e.g. generic HTTP and HLS both matching a playlist). The first
// confirmed entry wins; a confirmed entry is never downgraded to
// heuristic.
type CandidateSet map[string]StreamCandidate

// NewCandidateSet creates an empty candidate set.
func NewCandidateSet() CandidateSet {
	return make(CandidateSet)
}

// Add inserts a candidate, keeping the higher-confidence entry when the
// URL is already present.
func (s CandidateSet) Add(c StreamCandidate) {
	if existing, ok := s[c.URL]; ok && existing.Confidence >= c.Confidence {
		return
	}
	s[c.URL] = c
}

// Merge folds all entries of other into this set.
func (s CandidateSet) Merge(other CandidateSet) {
	for _, c := range other {
		s.Add(c)
	}
}

// URLs returns the sorted, deduplicated URL list.
// Sorting makes scan output deterministic for identical targets.
func (s CandidateSet) URLs() []string {
	urls := make([]string, 0, len(s))
	for url := range s {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Sorted returns candidates ordered by URL.
func (s CandidateSet) Sorted() []StreamCandidate {
	out := make([]StreamCandidate, 0, len(s))
	for _, url := range s.URLs() {
		out = append(out, s[url])
	}
	return out
}
