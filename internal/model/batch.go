package model

import "time"

// BatchStatus tracks an import batch through its lifecycle.
type BatchStatus string

// Batch statuses.
const (
	BatchAnalyzing BatchStatus = "analyzing"
	BatchCompleted BatchStatus = "completed"
)

// ImportBatch records one file import: created when analysis starts,
// finalized when the commit step has attempted every record.
type ImportBatch struct {
	ID        string
	Owner     string
	AccountID string
	Status    BatchStatus

	TotalCount     int
	ImportedCount  int
	DuplicateCount int
	SkippedCount   int
	ErrorCount     int

	// SourceConfig is the raw normalizer configuration used for this file,
	// kept for audit purposes.
	SourceConfig string

	// Log is the append-only processing log. Per-record commit failures
	// land here instead of aborting the batch.
	Log []string

	CreatedAt   time.Time
	CompletedAt *time.Time
}
