package netrange

import (
	"fmt"
	"net"
	"strings"

	"github.com/yl2chen/cidranger"
)

// Excluder filters hosts against a set of exclusion ranges.
//
// Design decision: We use cidranger's path-compressed trie rather than
// a linear scan over parsed CIDRs because exclusion lists are checked
// once per enumerated host, and a /16 target range means tens of
// thousands of lookups.
type Excluder struct {
	ranger cidranger.Ranger
	empty  bool
}

// NewExcluder builds an excluder from CIDR ranges. Bare IP addresses
// are accepted and treated as /32 entries.
func NewExcluder(ranges []string) (*Excluder, error) {
	ranger := cidranger.NewPCTrieRanger()
	count := 0

	for _, raw := range ranges {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("invalid exclusion entry %q", raw)
			}
			if ip.To4() != nil {
				raw += "/32"
			} else {
				raw += "/128"
			}
		}

		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion entry %q: %w", raw, err)
		}
		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*ipNet)); err != nil {
			return nil, fmt.Errorf("failed to index exclusion %q: %w", raw, err)
		}
		count++
	}

	return &Excluder{ranger: ranger, empty: count == 0}, nil
}

// Excluded reports whether the host falls inside any exclusion range.
// Unparseable hosts are never excluded; the scanner's dial will reject
// them soon enough.
func (e *Excluder) Excluded(host string) bool {
	if e.empty {
		return false
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	contained, err := e.ranger.Contains(ip)
	if err != nil {
		return false
	}
	return contained
}

// Filter returns the hosts that are not excluded, preserving order.
func (e *Excluder) Filter(hosts []string) []string {
	if e.empty {
		return hosts
	}

	kept := make([]string, 0, len(hosts))
	for _, host := range hosts {
		if !e.Excluded(host) {
			kept = append(kept, host)
		}
	}
	return kept
}
