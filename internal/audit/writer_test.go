package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/audit"
	"hrcore/internal/audit/store/memory"
	"hrcore/internal/changelog"
	"hrcore/internal/dispatch"
	"hrcore/internal/snapshot"
	"hrcore/pkg/requestcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bankSnapshot(id int64, bankName, accountNumber string) *snapshot.Snapshot {
	s := snapshot.New(id, "Bank Name", bankName)
	s.Add("Bank Name", bankName)
	s.Add("Account Number", accountNumber)
	return s
}

func TestHandleUpdatedWritesOneRecord(t *testing.T) {
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, nil, testLogger(), nil)

	err := writer.HandleUpdated(context.Background(), dispatch.Event{
		Signal:       dispatch.SignalEntityUpdated,
		EmployeeID:   42,
		Kind:         snapshot.KindBankAccount,
		RecordID:     5,
		Before:       bankSnapshot(5, "Chase", "111"),
		After:        bankSnapshot(5, "Chase", "222"),
		ActivityPath: "User Profile > Bank Accounts",
		ActorID:      9,
	})
	require.NoError(t, err)

	records := store.All()
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, int64(42), rec.EmployeeID)
	assert.Equal(t, snapshot.KindBankAccount, rec.ReferrableType)
	require.NotNil(t, rec.ReferrableTypeID)
	assert.Equal(t, int64(5), *rec.ReferrableTypeID)
	assert.Equal(t, changelog.ActionUpdated, rec.ActionType)
	assert.Equal(t, "User Profile > Bank Accounts", rec.Activity)
	assert.Equal(t, int64(9), rec.CreatedBy)

	require.Len(t, rec.ChangeLog, 1)
	entry := rec.ChangeLog[0]
	assert.Equal(t, "Account Number", entry.LabelName)
	assert.Equal(t, "111", entry.OldValue)
	assert.Equal(t, "222", entry.NewValue)
	assert.Equal(t, changelog.ActionUpdated, entry.ActionType)
	assert.Equal(t, int64(9), entry.ActionBy)
}

func TestHandleUpdatedIdenticalSnapshotsWritesNothing(t *testing.T) {
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, nil, testLogger(), nil)

	err := writer.HandleUpdated(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityUpdated,
		EmployeeID: 42,
		Kind:       snapshot.KindBankAccount,
		RecordID:   5,
		Before:     bankSnapshot(5, "Chase", "111"),
		After:      bankSnapshot(5, "Chase", "111"),
		ActorID:    9,
	})
	require.NoError(t, err)
	assert.Empty(t, store.All())
}

func TestHandleUpdatedCollectionRemoval(t *testing.T) {
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, nil, testLogger(), nil)

	err := writer.HandleUpdated(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityUpdated,
		EmployeeID: 42,
		Kind:       snapshot.KindBankAccount,
		BeforeSet:  snapshot.Collection{bankSnapshot(5, "Chase", "111")},
		AfterSet:   snapshot.Collection{},
		ActorID:    9,
	})
	require.NoError(t, err)

	records := store.All()
	require.Len(t, records, 1)
	require.Len(t, records[0].ChangeLog, 1)

	entry := records[0].ChangeLog[0]
	assert.Equal(t, changelog.ActionDeleted, entry.ActionType)
	assert.Equal(t, "Bank Name", entry.LabelName)
	assert.Equal(t, "Chase", entry.Value)
}

func TestHandleUpdatedMissingAfterStateWritesNothing(t *testing.T) {
	// The record was concurrently hard-deleted: no after snapshot, no
	// provider registered for the kind. Missing state means no prior state,
	// never an error back to the dispatcher.
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, snapshot.NewRegistry(), testLogger(), nil)

	err := writer.HandleUpdated(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityUpdated,
		EmployeeID: 42,
		Kind:       snapshot.KindPassport,
		RecordID:   7,
		Before:     bankSnapshot(7, "Chase", "111"),
	})
	require.NoError(t, err)
	assert.Empty(t, store.All())
}

func TestHandleCreatedSynthesizesDisplayEntry(t *testing.T) {
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, nil, testLogger(), nil)

	err := writer.HandleCreated(context.Background(), dispatch.Event{
		Signal:       dispatch.SignalEntityCreated,
		EmployeeID:   42,
		Kind:         snapshot.KindBankAccount,
		RecordID:     5,
		After:        bankSnapshot(5, "Chase", "111"),
		ActivityPath: "User Profile > Bank Accounts",
		ActorID:      9,
		OccurredAt:   time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	records := store.All()
	require.Len(t, records, 1)
	assert.Equal(t, changelog.ActionCreated, records[0].ActionType)

	require.Len(t, records[0].ChangeLog, 1)
	entry := records[0].ChangeLog[0]
	assert.Equal(t, "Bank Name", entry.LabelName)
	assert.Equal(t, "Chase", entry.Value)
	assert.Equal(t, changelog.ActionCreated, entry.ActionType)
}

func TestHandleDeletedUsesBeforeSnapshot(t *testing.T) {
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, nil, testLogger(), nil)

	err := writer.HandleDeleted(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityDeleted,
		EmployeeID: 42,
		Kind:       snapshot.KindBankAccount,
		RecordID:   5,
		Before:     bankSnapshot(5, "Chase", "111"),
		ActorID:    9,
	})
	require.NoError(t, err)

	records := store.All()
	require.Len(t, records, 1)
	assert.Equal(t, changelog.ActionDeleted, records[0].ActionType)
	assert.Equal(t, "Chase", records[0].ChangeLog[0].Value)
}

func TestHandleDeletedWithoutStateWritesNothing(t *testing.T) {
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, nil, testLogger(), nil)

	err := writer.HandleDeleted(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityDeleted,
		EmployeeID: 42,
		Kind:       snapshot.KindBankAccount,
	})
	require.NoError(t, err)
	assert.Empty(t, store.All())
}

// tenantAwareProvider records the tenant it was asked to resolve, the way
// the SQL providers read it for date formatting.
type tenantAwareProvider struct {
	sawTenant int64
}

func (p *tenantAwareProvider) Snapshot(ctx context.Context, _ snapshot.Condition) (*snapshot.Snapshot, error) {
	p.sawTenant = requestcontext.TenantID(ctx)
	return bankSnapshot(5, "Chase", "111"), nil
}

func (p *tenantAwareProvider) Snapshots(ctx context.Context, _ int64) (snapshot.Collection, error) {
	p.sawTenant = requestcontext.TenantID(ctx)
	return snapshot.Collection{bankSnapshot(5, "Chase", "222")}, nil
}

func TestWriterFetchesSnapshotsUnderEventTenant(t *testing.T) {
	// Handlers run on the dispatch goroutine, where the request context is
	// long gone; the tenant must come from the event.
	store := memory.NewInMemoryStore()
	provider := &tenantAwareProvider{}
	registry := snapshot.NewRegistry()
	registry.Register(snapshot.KindBankAccount, provider)
	registry.RegisterCollection(snapshot.KindBankAccount, provider)
	writer := audit.NewWriter(store, registry, testLogger(), nil)

	err := writer.HandleCreated(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityCreated,
		TenantID:   77,
		EmployeeID: 42,
		Kind:       snapshot.KindBankAccount,
		RecordID:   5,
		ActorID:    9,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), provider.sawTenant)

	err = writer.HandleUpdated(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityUpdated,
		TenantID:   78,
		EmployeeID: 42,
		Kind:       snapshot.KindBankAccount,
		BeforeSet:  snapshot.Collection{bankSnapshot(5, "Chase", "111")},
		ActorID:    9,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(78), provider.sawTenant)
}

func TestPrebuiltEntriesPassThrough(t *testing.T) {
	store := memory.NewInMemoryStore()
	writer := audit.NewWriter(store, nil, testLogger(), nil)

	err := writer.HandleCreated(context.Background(), dispatch.Event{
		Signal:     dispatch.SignalEntityCreated,
		EmployeeID: 42,
		Kind:       snapshot.KindPersonalDocument,
		RecordID:   3,
		Entries: []changelog.ChangeEntry{{
			LabelName:  "Passport Scan",
			Value:      "passport.pdf",
			ActionType: changelog.ActionCreated,
			Slug:       "document",
		}},
		ActorID: 9,
	})
	require.NoError(t, err)

	records := store.All()
	require.Len(t, records, 1)
	assert.Equal(t, "document", records[0].ChangeLog[0].Slug)
	assert.Equal(t, int64(9), records[0].ChangeLog[0].ActionBy)
}
