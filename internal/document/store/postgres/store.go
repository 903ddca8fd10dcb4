// Package postgres persists document rows. Every statement goes through the
// transaction in context when one is present, so promotion participates in
// the caller's unit of work.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hrcore/internal/document"
	"hrcore/internal/snapshot"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

// Store implements document.Store on *sql.DB.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateTemp(ctx context.Context, doc *document.TempDocument) error {
	const query = `
		INSERT INTO temp_documents (id, file_name, path, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, query,
		doc.ID, doc.FileName, doc.Path, doc.UploadedBy, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert temp document: %w", err)
	}
	return nil
}

func (s *Store) GetTemp(ctx context.Context, id uuid.UUID) (*document.TempDocument, error) {
	const query = `
		SELECT id, file_name, path, uploaded_by, created_at
		FROM temp_documents
		WHERE id = $1`

	var doc document.TempDocument
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.FileName, &doc.Path, &doc.UploadedBy, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("temp document %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query temp document: %w", err)
	}
	return &doc, nil
}

func (s *Store) DeleteTemp(ctx context.Context, id uuid.UUID) error {
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx,
		`DELETE FROM temp_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete temp document: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, rec *document.Record) error {
	const query = `
		INSERT INTO documents (
			id, document_name, document_url, document_path, folder,
			employee_id, referrable_type, referrable_type_id,
			created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, query,
		rec.ID, rec.DocumentName, rec.DocumentURL, rec.DocumentPath, rec.Folder,
		rec.EmployeeID, int16(rec.ReferrableType), rec.ReferrableTypeID,
		rec.CreatedBy, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*document.Record, error) {
	const query = `
		SELECT id, document_name, document_url, document_path, folder,
		       employee_id, referrable_type, referrable_type_id,
		       created_by, created_at, updated_at, deleted_at
		FROM documents
		WHERE id = $1 AND deleted_at IS NULL`

	var (
		rec            document.Record
		referrableType int16
	)
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.DocumentName, &rec.DocumentURL, &rec.DocumentPath, &rec.Folder,
		&rec.EmployeeID, &referrableType, &rec.ReferrableTypeID,
		&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	rec.ReferrableType = snapshot.Kind(referrableType)
	return &rec, nil
}

func (s *Store) SetLocation(ctx context.Context, id uuid.UUID, folder, name, url, path string, at time.Time) error {
	const query = `
		UPDATE documents
		SET folder = $2, document_name = $3, document_url = $4,
		    document_path = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL`

	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, query,
		id, folder, name, url, path, at)
	if err != nil {
		return fmt.Errorf("update document location: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx,
		`UPDATE documents SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, at)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) CountNameMatches(ctx context.Context, folder, name string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM documents
		WHERE folder = $1
		  AND document_name ILIKE '%' || $2 || '%'
		  AND deleted_at IS NULL`

	var count int
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, folder, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count document names: %w", err)
	}
	return count, nil
}
