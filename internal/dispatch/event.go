// Package dispatch is the in-process publish/subscribe channel between
// business writes and the audit pipeline. Publishing is fire-and-forget over
// a bounded queue: the caller's transaction has already committed, so a full
// queue drops the event (counted and logged) rather than blocking the
// request path.
package dispatch

import (
	"time"

	"hrcore/internal/changelog"
	"hrcore/internal/snapshot"
)

// Signal names the three entity lifecycle signals business services publish.
type Signal string

const (
	SignalEntityCreated Signal = "entity-created"
	SignalEntityUpdated Signal = "entity-updated"
	SignalEntityDeleted Signal = "entity-deleted"
)

// Event carries everything a handler needs to record one business action.
// Either the snapshots or a pre-built change log is provided; the audit
// writer diffs the former and passes the latter through.
type Event struct {
	Signal     Signal
	TenantID   int64
	EmployeeID int64

	// Kind and RecordID identify the mutated child entity. RecordID is zero
	// for whole-profile actions.
	Kind     snapshot.Kind
	RecordID int64

	Action changelog.ActionType

	// Before/After are populated for singleton entities, BeforeSet/AfterSet
	// for collection-valued ones. All four may be nil when Entries is set.
	Before    *snapshot.Snapshot
	After     *snapshot.Snapshot
	BeforeSet snapshot.Collection
	AfterSet  snapshot.Collection

	// Entries is a pre-built change log, used by publishers that already
	// know exactly what changed (e.g. document promotion).
	Entries []changelog.ChangeEntry

	// DiffOptions carry entity-specific ignore lists and document-flag
	// rules into the writer's diff call.
	DiffOptions []changelog.Option

	// ActivityPath is the slash-delimited human path shown in the activity
	// view, e.g. "User Profile > Bank Accounts".
	ActivityPath string

	ActorID    int64
	OccurredAt time.Time
}
