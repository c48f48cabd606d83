package model

import (
	"time"
)

// ScanReport is the aggregate outcome of one network scan: the merged
// candidate set plus the batch counters, timestamped for the report
// writers.
type ScanReport struct {
	// StartedAt is when the scan batch began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last host scan joined.
	FinishedAt time.Time `json:"finished_at"`

	// HostsScanned is the number of hosts that completed scanning.
	HostsScanned int `json:"hosts_scanned"`

	// HostsSuccessful is the number of hosts scanned without an
	// isolated prober failure.
	HostsSuccessful int `json:"hosts_successful"`

	// HostsFailed is the number of hosts whose scan had at least one
	// prober failure.
	HostsFailed int `json:"hosts_failed"`

	// Streams holds the discovered candidates ordered by URL.
	Streams []StreamCandidate `json:"streams"`
}

// NewScanReport assembles a report from the batch counters and the
// merged candidate set.
func NewScanReport(started, finished time.Time, progress ProgressSnapshot, set CandidateSet) *ScanReport {
	return &ScanReport{
		StartedAt:       started,
		FinishedAt:      finished,
		HostsScanned:    progress.Scanned,
		HostsSuccessful: progress.Successful,
		HostsFailed:     progress.Failed,
		Streams:         set.Sorted(),
	}
}

// Elapsed returns the scan wall-clock duration.
func (r *ScanReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountByProtocol returns per-protocol stream counts.
func (r *ScanReport) CountByProtocol() map[string]int {
	counts := make(map[string]int)
	for _, s := range r.Streams {
		counts[s.Protocol]++
	}
	return counts
}

// CountByConfidence returns stream counts per confidence tier.
func (r *ScanReport) CountByConfidence() map[Confidence]int {
	counts := make(map[Confidence]int)
	for _, s := range r.Streams {
		counts[s.Confidence]++
	}
	return counts
}

// URLs returns the stream URLs in report order.
func (r *ScanReport) URLs() []string {
	urls := make([]string, 0, len(r.Streams))
	for _, s := range r.Streams {
		urls = append(urls, s.URL)
	}
	return urls
}
