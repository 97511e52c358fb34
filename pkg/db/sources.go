package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fylr-platform/core/pkg/domain"
)

// ErrNotFound is returned by repository lookups that find no row.
var ErrNotFound = errors.New("db: not found")

// SourceRepo persists domain.Source rows.
type SourceRepo struct {
	conn *sql.DB
}

func NewSourceRepo(conn *sql.DB) *SourceRepo {
	return &SourceRepo{conn: conn}
}

func (r *SourceRepo) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT id, library_id, name, mime_type, s3_key, size_bytes, uploaded_at,
		       job_key, status, ingestor_type, ingestor_version, reingestion_status,
		       reingestion_started_at, reingestion_completed_at
		FROM sources WHERE id = $1`, id)

	var s domain.Source
	err := row.Scan(&s.ID, &s.LibraryID, &s.Name, &s.MimeType, &s.S3Key, &s.SizeBytes,
		&s.UploadedAt, &s.JobKey, &s.Status, &s.IngestorType, &s.IngestorVersion,
		&s.ReingestionStatus, &s.ReingestionStartedAt, &s.ReingestionCompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get source %s: %w", id, err)
	}
	return &s, nil
}

// MarkCompleted sets status=COMPLETED and stamps the ingestor identity
// that produced the chunks (spec.md §4.F stage 5).
func (r *SourceRepo) MarkCompleted(ctx context.Context, id, ingestorType, ingestorVersion string) error {
	_, err := r.conn.ExecContext(ctx, `
		UPDATE sources SET status = 'COMPLETED', ingestor_type = $2, ingestor_version = $3
		WHERE id = $1`, id, ingestorType, ingestorVersion)
	if err != nil {
		return fmt.Errorf("db: mark source %s completed: %w", id, err)
	}
	return nil
}

func (r *SourceRepo) MarkFailed(ctx context.Context, id string) error {
	_, err := r.conn.ExecContext(ctx, `UPDATE sources SET status = 'FAILED' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db: mark source %s failed: %w", id, err)
	}
	return nil
}

// StartReingestion records that a re-ingest run has begun.
func (r *SourceRepo) StartReingestion(ctx context.Context, id string) error {
	_, err := r.conn.ExecContext(ctx, `
		UPDATE sources SET reingestion_status = 'IN_PROGRESS', reingestion_started_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db: start reingestion for %s: %w", id, err)
	}
	return nil
}

// CompleteReingestion records a successful re-ingest and flips the
// Source back to COMPLETED overall status.
func (r *SourceRepo) CompleteReingestion(ctx context.Context, id string) error {
	_, err := r.conn.ExecContext(ctx, `
		UPDATE sources SET status = 'COMPLETED', reingestion_status = 'COMPLETED',
		       reingestion_completed_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db: complete reingestion for %s: %w", id, err)
	}
	return nil
}

func (r *SourceRepo) FailReingestion(ctx context.Context, id string) error {
	_, err := r.conn.ExecContext(ctx, `
		UPDATE sources SET status = 'FAILED', reingestion_status = 'FAILED',
		       reingestion_completed_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db: fail reingestion for %s: %w", id, err)
	}
	return nil
}
