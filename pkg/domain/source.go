// Package domain holds the entity types shared across the gateway and the
// worker binaries: Source, DocumentVector, Library, Summary, Podcast, and
// Episode, as described by the core's data model. None of these types own a
// database connection; persistence lives in pkg/db.
package domain

import "time"

// SourceStatus is the lifecycle state of an uploaded document.
type SourceStatus string

const (
	SourceStatusPending   SourceStatus = "PENDING"
	SourceStatusCompleted SourceStatus = "COMPLETED"
	SourceStatusFailed    SourceStatus = "FAILED"
)

// ReingestionStatus tracks the independent re-ingestion lifecycle for a
// Source. Left as NULL/empty until a re-ingestion is first requested.
type ReingestionStatus string

const (
	ReingestionStatusPending   ReingestionStatus = "PENDING"
	ReingestionStatusCompleted ReingestionStatus = "COMPLETED"
	ReingestionStatusFailed    ReingestionStatus = "FAILED"
)

// Source is an uploaded document owned by a Library. It is created by the
// uploader in PENDING and mutated only by an ingestion worker; the core
// never deletes it.
type Source struct {
	ID        string
	LibraryID string
	Name      string
	MimeType  string
	S3Key     string
	SizeBytes int64
	UploadedAt time.Time
	JobKey    string

	Status SourceStatus

	IngestorType    string
	IngestorVersion string

	ReingestionStatus      ReingestionStatus
	ReingestionStartedAt   *time.Time
	ReingestionCompletedAt *time.Time
}

// IsReingestionComplete reports whether a prior re-ingestion already brought
// this Source fully up to date, per the idempotency rule in spec.md §4.F:
// a re-ingest message for a Source that is both COMPLETED and whose
// reingestion_status is COMPLETED is acked without reprocessing.
func (s *Source) IsReingestionComplete() bool {
	return s.Status == SourceStatusCompleted && s.ReingestionStatus == ReingestionStatusCompleted
}
