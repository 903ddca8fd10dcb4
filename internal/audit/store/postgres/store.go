// Package postgres persists audit records in the tenant's relational
// database. The table is append-only; there is no update or delete path.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"hrcore/internal/audit"
	"hrcore/internal/changelog"
	"hrcore/internal/snapshot"
)

// Store implements audit.Store on *sql.DB.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one audit record. The change log is serialized to JSON; a
// serialization failure surfaces as an error and the caller skips the write.
func (s *Store) Append(ctx context.Context, rec *audit.Record) error {
	changeLog, err := json.Marshal(rec.ChangeLog)
	if err != nil {
		return fmt.Errorf("marshal change log: %w", err)
	}

	const query = `
		INSERT INTO audit_records (
			employee_id, referrable_type, referrable_type_id,
			action_type, activity, change_log, created_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var referrableType any
	if rec.ReferrableType != 0 {
		referrableType = int16(rec.ReferrableType)
	}

	err = s.db.QueryRowContext(ctx, query,
		rec.EmployeeID,
		referrableType,
		rec.ReferrableTypeID,
		int16(rec.ActionType),
		rec.Activity,
		changeLog,
		rec.CreatedBy,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// List returns one page of records for an employee, newest first, plus the
// total match count. The acting user's display name is joined in.
func (s *Store) List(ctx context.Context, q audit.Query) ([]audit.Record, int, error) {
	where := `WHERE a.employee_id = $1`
	args := []any{q.EmployeeID}
	if q.ReferrableTypeID != nil {
		where += ` AND a.referrable_type_id = $2`
		args = append(args, *q.ReferrableTypeID)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM audit_records a ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.employee_id, a.referrable_type, a.referrable_type_id,
		       a.action_type, a.activity, a.change_log, a.created_by,
		       COALESCE(u.display_name, ''), a.created_at
		FROM audit_records a
		LEFT JOIN users u ON u.id = a.created_by
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var records []audit.Record
	for rows.Next() {
		var (
			rec            audit.Record
			referrableType sql.NullInt16
			referrableID   sql.NullInt64
			actionType     int16
			changeLog      []byte
		)
		err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &referrableType, &referrableID,
			&actionType, &rec.Activity, &changeLog, &rec.CreatedBy,
			&rec.CreatedByName, &rec.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit record: %w", err)
		}

		rec.ActionType = changelog.ActionType(actionType)
		if referrableType.Valid {
			rec.ReferrableType = snapshot.Kind(referrableType.Int16)
		}
		if referrableID.Valid {
			id := referrableID.Int64
			rec.ReferrableTypeID = &id
		}
		if err := json.Unmarshal(changeLog, &rec.ChangeLog); err != nil {
			return nil, 0, fmt.Errorf("unmarshal change log: %w", err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit records: %w", err)
	}

	return records, total, nil
}
