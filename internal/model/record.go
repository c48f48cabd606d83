package model

import "time"

// ActiveStreamRecord describes a URL that passed content-based liveness
// verification at least once. One record exists per URL; the URL is the
// natural key.
//
// Lifecycle: created on first successful verification, LastActive
// refreshed on every re-verification, evicted from the live registry
// (Active flipped to false, appended to history) once the staleness
// threshold elapses without a successful re-probe. Eviction is terminal;
// a later rediscovery creates a fresh record.
type ActiveStreamRecord struct {
	// URL is the verified stream endpoint.
	URL string `json:"url"`

	// ContentType is the content type observed during verification.
	// For non-HTTP protocols this is the URL scheme (e.g. "rtsp").
	ContentType string `json:"content_type"`

	// FirstSeen is when the stream first passed verification.
	FirstSeen time.Time `json:"first_seen"`

	// LastActive is when the stream last passed verification.
	LastActive time.Time `json:"last_active"`

	// Size is the payload sample size in bytes read during the most
	// recent verification.
	Size int `json:"size"`

	// Active reports whether the record is still in the live registry.
	Active bool `json:"active"`

	// Confidence is carried over from the discovery tier.
	Confidence Confidence `json:"confidence"`
}

// NewActiveStreamRecord creates a record for a freshly verified stream.
func NewActiveStreamRecord(url, contentType string, size int, now time.Time) *ActiveStreamRecord {
	return &ActiveStreamRecord{
		URL:         url,
		ContentType: contentType,
		FirstSeen:   now,
		LastActive:  now,
		Size:        size,
		Active:      true,
		Confidence:  ConfidenceConfirmed,
	}
}

// Refresh updates the record after a successful re-verification.
func (r *ActiveStreamRecord) Refresh(contentType string, size int, now time.Time) {
	r.ContentType = contentType
	r.Size = size
	r.LastActive = now
	r.Active = true
}

// Stale reports whether the record has gone longer than threshold
// without a successful verification.
func (r *ActiveStreamRecord) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(r.LastActive) > threshold
}

// StreamDocument is the on-disk JSON shape shared by the active-streams
// and stream-history documents:
//
//	{ "streams": [ {url, content_type, first_seen, last_active, size, active}, ... ] }
//
// Design decision: Both documents share one shape so the persistence
// layer can treat them uniformly with a single read-modify-write upsert.
type StreamDocument struct {
	// Streams is the list of records, unique by URL.
	Streams []*ActiveStreamRecord `json:"streams"`
}

// NewStreamDocument creates an empty document.
// This is also the fallback for a missing or corrupt file.
func NewStreamDocument() *StreamDocument {
	return &StreamDocument{Streams: make([]*ActiveStreamRecord, 0)}
}

// Upsert inserts the record or replaces the existing entry with the
// same URL.
func (d *StreamDocument) Upsert(rec *ActiveStreamRecord) {
	for i, existing := range d.Streams {
		if existing.URL == rec.URL {
			d.Streams[i] = rec
			return
		}
	}
	d.Streams = append(d.Streams, rec)
}

// Find returns the record with the given URL, or nil.
func (d *StreamDocument) Find(url string) *ActiveStreamRecord {
	for _, rec := range d.Streams {
		if rec.URL == url {
			return rec
		}
	}
	return nil
}
