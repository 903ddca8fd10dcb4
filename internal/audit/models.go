// Package audit persists and serves the append-only change history produced
// by the dispatch pipeline. Nothing here ever updates or deletes an existing
// record.
package audit

import (
	"context"
	"time"

	"hrcore/internal/changelog"
	"hrcore/internal/snapshot"
)

// Record is one persisted audit row: the change log for a single business
// action, scoped to an employee and optionally to one child record.
type Record struct {
	ID         int64 `json:"id"`
	EmployeeID int64 `json:"employee_id"`

	// ReferrableType identifies which entity kind the action touched;
	// ReferrableTypeID points at the child row, nil for whole-profile
	// actions.
	ReferrableType   snapshot.Kind `json:"referrable_type"`
	ReferrableTypeID *int64        `json:"referrable_type_id,omitempty"`

	ActionType changelog.ActionType `json:"action_type"`

	// Activity is the slash-delimited human path shown in the activity
	// view, e.g. "User Profile > Documents > Passport".
	Activity string `json:"activity"`

	ChangeLog []changelog.ChangeEntry `json:"change_log"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	// CreatedByName and ReferrableName are resolved at read time: the
	// actor's display name and the label of the referenced child record.
	CreatedByName  string `json:"created_by_name,omitempty"`
	ReferrableName string `json:"referrable_name,omitempty"`
}

// Query filters and paginates a listing.
type Query struct {
	EmployeeID       int64
	ReferrableTypeID *int64
	Offset           int
	Limit            int
}

// Store is the persistence contract for audit records. Append-only by
// design; List returns one page plus the total match count.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, q Query) ([]Record, int, error)
}
