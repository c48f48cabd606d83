package model

import "sync/atomic"

// ScanProgress tracks scan completion counters.
// All counters are monotonically non-decreasing. They are incremented
// only at host-scan completion (exactly once per host) and may be read
// concurrently by a progress reporter.
//
// Design decision: We use atomic counters rather than a mutex because
// the counters are independent and readers only need a consistent-enough
// snapshot for display purposes.
type ScanProgress struct {
	total      int64
	scanned    atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
}

// NewScanProgress creates a progress tracker for totalHosts hosts.
func NewScanProgress(totalHosts int) *ScanProgress {
	return &ScanProgress{total: int64(totalHosts)}
}

// HostDone records one completed host scan.
// succeeded reports whether the scan finished without an isolated
// prober failure.
func (p *ScanProgress) HostDone(succeeded bool) {
	p.scanned.Add(1)
	if succeeded {
		p.successful.Add(1)
	} else {
		p.failed.Add(1)
	}
}

// Snapshot returns the current counter values.
func (p *ScanProgress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Scanned:    int(p.scanned.Load()),
		Total:      int(p.total),
		Successful: int(p.successful.Load()),
		Failed:     int(p.failed.Load()),
	}
}

// ProgressSnapshot is a point-in-time copy of the scan counters.
type ProgressSnapshot struct {
	Scanned    int
	Total      int
	Successful int
	Failed     int
}

// Percent returns scan completion as a percentage.
// Returns 100 for an empty host list to avoid division by zero.
func (s ProgressSnapshot) Percent() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Scanned) / float64(s.Total) * 100
}
