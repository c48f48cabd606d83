package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/streamscan/streamscan/internal/model"
)

// StreamDB provides SQLite-based storage for scan sessions and stream
// sightings. It manages connection pooling and provides methods for
// CRUD operations.
//
// Design decision: We use one database file for all sessions rather
// than a file per scan. Sightings reference their session by ID, which
// makes "when did this URL last answer" queries a single join.
type StreamDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StreamDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StreamDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*StreamDB, error) {
	dbPath := filepath.Join(dbDir, "streamscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple readers can still
	// improve performance.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StreamDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StreamDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StreamDB) createTables() error {
	schema := `
	-- Scan sessions store one row per network scan batch
	CREATE TABLE IF NOT EXISTS scan_sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		hosts_scanned INTEGER NOT NULL,
		hosts_successful INTEGER NOT NULL,
		hosts_failed INTEGER NOT NULL,
		streams_found INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON scan_sessions(started_at);

	-- Sightings link discovered stream URLs to the session that found them
	CREATE TABLE IF NOT EXISTS sightings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES scan_sessions(id),
		url TEXT NOT NULL,
		protocol TEXT NOT NULL,
		confidence TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_sightings_url ON sightings(url);
	CREATE INDEX IF NOT EXISTS idx_sightings_session ON sightings(session_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// ScanSession is a stored scan batch.
type ScanSession struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	HostsScanned    int
	HostsSuccessful int
	HostsFailed     int
	StreamsFound    int
}

// Sighting records one discovered URL within a session.
type Sighting struct {
	ID         int64
	SessionID  string
	URL        string
	Protocol   string
	Confidence string
	Timestamp  time.Time
}

// RecordSession stores a scan report as a session plus one sighting per
// discovered stream, and returns the generated session ID.
func (sdb *StreamDB) RecordSession(ctx context.Context, report *model.ScanReport) (string, error) {
	sessionID := uuid.NewString()

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO scan_sessions (id, started_at, finished_at, hosts_scanned, hosts_successful, hosts_failed, streams_found)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		sessionID,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		report.HostsScanned,
		report.HostsSuccessful,
		report.HostsFailed,
		len(report.Streams),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert scan session: %w", err)
	}

	for _, stream := range report.Streams {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO sightings (session_id, url, protocol, confidence)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, url) DO NOTHING
		`,
			sessionID,
			stream.URL,
			stream.Protocol,
			stream.Confidence.String(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert sighting for %s: %w", stream.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit session: %w", err)
	}
	return sessionID, nil
}

// GetSession retrieves a session by ID. Returns nil when not found.
func (sdb *StreamDB) GetSession(ctx context.Context, id string) (*ScanSession, error) {
	query := `
	SELECT id, started_at, finished_at, hosts_scanned, hosts_successful, hosts_failed, streams_found
	FROM scan_sessions
	WHERE id = ?
	`

	var (
		session  ScanSession
		started  string
		finished string
	)
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&started,
		&finished,
		&session.HostsScanned,
		&session.HostsSuccessful,
		&session.HostsFailed,
		&session.StreamsFound,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan session: %w", err)
	}

	session.StartedAt = parseTimestamp(started)
	session.FinishedAt = parseTimestamp(finished)
	return &session, nil
}

// ListSessions returns all sessions, most recent first.
func (sdb *StreamDB) ListSessions(ctx context.Context) ([]ScanSession, error) {
	query := `
	SELECT id, started_at, finished_at, hosts_scanned, hosts_successful, hosts_failed, streams_found
	FROM scan_sessions
	ORDER BY started_at DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ScanSession
	for rows.Next() {
		var (
			session  ScanSession
			started  string
			finished string
		)
		if err := rows.Scan(
			&session.ID,
			&started,
			&finished,
			&session.HostsScanned,
			&session.HostsSuccessful,
			&session.HostsFailed,
			&session.StreamsFound,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		session.StartedAt = parseTimestamp(started)
		session.FinishedAt = parseTimestamp(finished)
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// SightingsForSession returns every sighting in one session, ordered by URL.
func (sdb *StreamDB) SightingsForSession(ctx context.Context, sessionID string) ([]Sighting, error) {
	return sdb.querySightings(ctx, `
	SELECT id, session_id, url, protocol, confidence, timestamp
	FROM sightings
	WHERE session_id = ?
	ORDER BY url
	`, sessionID)
}

// SightingsForURL returns the sighting history of one URL across all
// sessions, most recent first.
func (sdb *StreamDB) SightingsForURL(ctx context.Context, url string) ([]Sighting, error) {
	return sdb.querySightings(ctx, `
	SELECT id, session_id, url, protocol, confidence, timestamp
	FROM sightings
	WHERE url = ?
	ORDER BY timestamp DESC
	`, url)
}

// querySightings runs a sighting query and scans the rows.
func (sdb *StreamDB) querySightings(ctx context.Context, query string, arg any) ([]Sighting, error) {
	rows, err := sdb.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query sightings: %w", err)
	}
	defer rows.Close()

	var sightings []Sighting
	for rows.Next() {
		var (
			s         Sighting
			timestamp string
		)
		if err := rows.Scan(&s.ID, &s.SessionID, &s.URL, &s.Protocol, &s.Confidence, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan sighting row: %w", err)
		}

		s.Timestamp = parseTimestamp(timestamp)
		sightings = append(sightings, s)
	}

	return sightings, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
