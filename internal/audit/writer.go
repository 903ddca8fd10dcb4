package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hrcore/internal/changelog"
	"hrcore/internal/dispatch"
	"hrcore/internal/snapshot"
	"hrcore/pkg/platform/sentinel"
	"hrcore/pkg/requestcontext"
)

// Writer turns dispatched entity signals into audit records. It runs on the
// dispatch goroutine, after the business transaction has committed; every
// error it returns is logged and swallowed at the dispatcher boundary, so a
// failed audit write is invisible to the original request.
type Writer struct {
	store     Store
	providers *snapshot.Registry
	logger    *slog.Logger
	metrics   *Metrics
}

// NewWriter builds an audit writer. providers may be nil when every event is
// published with snapshots or a pre-built change log attached.
func NewWriter(store Store, providers *snapshot.Registry, logger *slog.Logger, metrics *Metrics) *Writer {
	return &Writer{store: store, providers: providers, logger: logger, metrics: metrics}
}

// Register subscribes the writer to all three entity signals.
func (w *Writer) Register(d *dispatch.Dispatcher) {
	d.Subscribe(dispatch.SignalEntityCreated, w.HandleCreated)
	d.Subscribe(dispatch.SignalEntityUpdated, w.HandleUpdated)
	d.Subscribe(dispatch.SignalEntityDeleted, w.HandleDeleted)
}

// scoped re-applies the event's tenant and actor to the context. The writer
// runs on the dispatch goroutine, outside the original request, so provider
// fetches would otherwise resolve tenant-scoped settings (date formats) for
// tenant zero.
func scoped(ctx context.Context, ev dispatch.Event) context.Context {
	if ev.TenantID != 0 {
		ctx = requestcontext.WithTenantID(ctx, ev.TenantID)
	}
	if ev.ActorID != 0 {
		ctx = requestcontext.WithActorID(ctx, ev.ActorID)
	}
	return ctx
}

// HandleUpdated diffs the before/after state and appends a record only when
// at least one entry came out of the diff.
func (w *Writer) HandleUpdated(ctx context.Context, ev dispatch.Event) error {
	ctx = scoped(ctx, ev)

	entries := ev.Entries
	if entries == nil {
		var err error
		entries, err = w.diff(ctx, ev)
		if err != nil {
			return err
		}
	}

	if len(entries) == 0 {
		if w.metrics != nil {
			w.metrics.WritesSkipped.Inc()
		}
		return nil
	}

	return w.append(ctx, ev, changelog.ActionUpdated, entries)
}

// HandleCreated appends a record describing the new entity. A create always
// produces at least the record's display value.
func (w *Writer) HandleCreated(ctx context.Context, ev dispatch.Event) error {
	ctx = scoped(ctx, ev)

	entries := ev.Entries
	if len(entries) == 0 {
		after := ev.After
		if after == nil && w.providers != nil && ev.Kind.Valid() {
			fetched, err := w.providers.Snapshot(ctx, ev.Kind, snapshot.Condition{
				EmployeeID: ev.EmployeeID,
				RecordID:   ev.RecordID,
			})
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("fetch created snapshot: %w", err)
			}
			after = fetched
		}
		entries = recordEntry(after, changelog.ActionCreated)
	}

	if len(entries) == 0 {
		w.logger.WarnContext(ctx, "created signal carried no state, skipping audit write",
			"employee_id", ev.EmployeeID, "kind", ev.Kind.String())
		return nil
	}

	return w.append(ctx, ev, changelog.ActionCreated, entries)
}

// HandleDeleted appends a record naming the removed entity. The row is gone
// by the time this runs, so the before snapshot must travel on the event.
func (w *Writer) HandleDeleted(ctx context.Context, ev dispatch.Event) error {
	ctx = scoped(ctx, ev)

	entries := ev.Entries
	if len(entries) == 0 {
		entries = recordEntry(ev.Before, changelog.ActionDeleted)
	}

	if len(entries) == 0 {
		w.logger.WarnContext(ctx, "deleted signal carried no state, skipping audit write",
			"employee_id", ev.EmployeeID, "kind", ev.Kind.String())
		return nil
	}

	return w.append(ctx, ev, changelog.ActionDeleted, entries)
}

// diff computes change entries for an update, fetching the after state when
// the publisher did not attach it. A vanished row counts as "no state", not
// as a failure.
func (w *Writer) diff(ctx context.Context, ev dispatch.Event) ([]changelog.ChangeEntry, error) {
	if ev.BeforeSet != nil || ev.AfterSet != nil {
		after := ev.AfterSet
		if after == nil && w.providers != nil {
			fetched, err := w.providers.Snapshots(ctx, ev.Kind, ev.EmployeeID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, fmt.Errorf("fetch after collection: %w", err)
			}
			after = fetched
		}
		return changelog.DiffCollections(ev.BeforeSet, after, ev.DiffOptions...), nil
	}

	after := ev.After
	if after == nil && w.providers != nil && ev.Kind.Valid() {
		fetched, err := w.providers.Snapshot(ctx, ev.Kind, snapshot.Condition{
			EmployeeID: ev.EmployeeID,
			RecordID:   ev.RecordID,
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("fetch after snapshot: %w", err)
		}
		after = fetched
	}
	return changelog.DiffSnapshots(ev.Before, after, ev.DiffOptions...), nil
}

func (w *Writer) append(ctx context.Context, ev dispatch.Event, action changelog.ActionType, entries []changelog.ChangeEntry) error {
	for i := range entries {
		if entries[i].ActionBy == 0 {
			entries[i].ActionBy = ev.ActorID
		}
	}

	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	rec := &Record{
		EmployeeID:     ev.EmployeeID,
		ReferrableType: ev.Kind,
		ActionType:     action,
		Activity:       ev.ActivityPath,
		ChangeLog:      entries,
		CreatedBy:      ev.ActorID,
		CreatedAt:      occurred,
	}
	if ev.RecordID != 0 {
		id := ev.RecordID
		rec.ReferrableTypeID = &id
	}

	if err := w.store.Append(ctx, rec); err != nil {
		if w.metrics != nil {
			w.metrics.PersistFailures.Inc()
		}
		return fmt.Errorf("append audit record: %w", err)
	}
	if w.metrics != nil {
		w.metrics.RecordsWritten.Inc()
	}
	return nil
}

// recordEntry synthesizes the single display-value entry for a whole-record
// create or delete.
func recordEntry(s *snapshot.Snapshot, action changelog.ActionType) []changelog.ChangeEntry {
	if s == nil {
		return nil
	}
	return []changelog.ChangeEntry{{
		LabelName:     s.ReferenceLabel,
		Value:         s.ReferenceName,
		ActionType:    action,
		ReferenceName: s.ReferenceName,
	}}
}
