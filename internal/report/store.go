// Package report provides PostgreSQL-backed storage for abuse reports.
// Each report captures who reported whom (by participant id and network
// address) and the free-form evidence the reporter attached.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Report represents a single abuse report to be persisted.
type Report struct {
	ReporterID   string
	ReporterAddr string
	ReportedID   string
	ReportedAddr string
	Evidence     string
	ReportedTs   int64 // unix timestamp from the originating event
}

// Store manages abuse reports in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new report store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts an abuse report into PostgreSQL. The evidence is validated
// before insertion.
func (s *Store) Create(ctx context.Context, rep *Report) error {
	if err := ValidateEvidence(rep.Evidence); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	const query = `
		INSERT INTO abuse_reports (reporter_id, reporter_addr, reported_id, reported_addr, evidence, reported_at)
		VALUES ($1, $2, $3, $4, $5, to_timestamp($6))`

	_, err := s.db.ExecContext(ctx, query,
		rep.ReporterID,
		rep.ReporterAddr,
		rep.ReportedID,
		rep.ReportedAddr,
		rep.Evidence,
		rep.ReportedTs,
	)
	if err != nil {
		return fmt.Errorf("report: insert: %w", err)
	}
	return nil
}

// CountRecent returns the number of reports filed against an address within
// the given time window. This backs the auto-ban logic (3 reports in 24
// hours triggers a ban).
func (s *Store) CountRecent(ctx context.Context, reportedAddr string, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM abuse_reports
		WHERE reported_addr = $1
		  AND created_at >= NOW() - $2::interval`

	var count int
	err := s.db.QueryRowContext(ctx, query, reportedAddr, window.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("report: count recent: %w", err)
	}
	return count, nil
}
