package model

// Confidence represents how much trust a discovery deserves.
// Protocols that validate response content produce confirmed candidates;
// protocols that only observe an open port produce heuristic ones.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Confidence int

const (
	// ConfidenceHeuristic indicates the endpoint was inferred from
	// reachability alone, without any content verification.
	// RTMP candidates fall in this tier: the port accepted a TCP
	// connection, but no application-layer handshake was performed.
	ConfidenceHeuristic Confidence = iota

	// ConfidenceConfirmed indicates the endpoint returned content that
	// matched the protocol's expected signature (RTSP status line,
	// #EXTM3U marker, MPD manifest, video content type, WebSocket reply).
	ConfidenceConfirmed
)

// String returns a human-readable representation of the confidence tier.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHeuristic:
		return "HEURISTIC"
	case ConfidenceConfirmed:
		return "CONFIRMED"
	default:
		return "UNKNOWN"
	}
}
