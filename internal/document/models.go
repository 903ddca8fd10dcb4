// Package document manages the lifecycle of uploaded files: temporary
// staging, promotion to permanent entity-scoped storage, and deletion. It is
// the sole owner of the bytes between the temp and permanent paths; nothing
// else renames, moves, or removes them.
package document

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hrcore/internal/snapshot"
)

// TempDocument is an upload sitting in temporary staging, not yet promoted.
type TempDocument struct {
	ID         uuid.UUID
	FileName   string
	Path       string
	UploadedBy int64
	CreatedAt  time.Time
}

// Record is a persisted document row. A record shares its id with the temp
// document it was promoted from, which is what makes promotion retryable.
// Lifecycle: created pointing at the temp path, repointed at the permanent
// path on promotion, soft-deleted (timestamp set, bytes removed) at the end.
type Record struct {
	ID               uuid.UUID     `json:"id"`
	DocumentName     string        `json:"document_name"`
	DocumentURL      string        `json:"document_url"`
	DocumentPath     string        `json:"document_path"`
	Folder           string        `json:"folder"`
	EmployeeID       int64         `json:"employee_id"`
	ReferrableType   snapshot.Kind `json:"referrable_type"`
	ReferrableTypeID int64         `json:"referrable_type_id"`
	CreatedBy        int64         `json:"created_by"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	DeletedAt        *time.Time    `json:"deleted_at,omitempty"`
}

// Store is the persistence contract for document rows. Implementations join
// an in-flight transaction from context so a failed promotion rolls back
// with the business write.
type Store interface {
	CreateTemp(ctx context.Context, doc *TempDocument) error
	GetTemp(ctx context.Context, id uuid.UUID) (*TempDocument, error)
	DeleteTemp(ctx context.Context, id uuid.UUID) error

	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	SetLocation(ctx context.Context, id uuid.UUID, folder, name, url, path string, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error

	// CountNameMatches counts live records in a folder whose stored name
	// contains the given name, case-insensitively. Used for collision
	// suffixing, best-effort under concurrency.
	CountNameMatches(ctx context.Context, folder, name string) (int, error)
}
