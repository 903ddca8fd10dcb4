package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hrcore/internal/changelog"
	"hrcore/internal/dispatch"
	"hrcore/internal/document"
	"hrcore/internal/snapshot"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
	"hrcore/pkg/requestcontext"
)

// voidChequeRule maps the replacement flag to its audit entry. The flag
// itself never appears in the change log.
var voidChequeRule = changelog.FlagRule{
	FlagLabel: "Void Cheque Replaced",
	Artifact:  "Void Cheque",
	Slug:      "document",
}

// Service owns bank account writes. Snapshot capture brackets the
// transaction: before-state is read pre-begin, after-state post-commit, and
// the lifecycle event goes out only once the commit has succeeded.
type Service struct {
	db         *sql.DB
	store      Store
	snapshots  *snapshot.Registry
	documents  *document.Service
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

func NewService(db *sql.DB, store Store, snapshots *snapshot.Registry, documents *document.Service, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		db:         db,
		store:      store,
		snapshots:  snapshots,
		documents:  documents,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Create inserts an account and promotes its void cheque, if staged, in one
// transaction. A failed document move rolls the insert back.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Account, error) {
	now := time.Now()
	acc := &Account{
		EmployeeID:    in.EmployeeID,
		BankName:      in.BankName,
		AccountNumber: in.AccountNumber,
		RoutingNumber: in.RoutingNumber,
		AccountType:   in.AccountType,
		CreatedAt:     now,
		UpdatedAt:     now,
		VoidChequeDoc: in.VoidChequeTempDocID,
	}

	err := s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, acc); err != nil {
			return err
		}
		if in.VoidChequeTempDocID != nil {
			return s.promoteVoidCheque(txCtx, *in.VoidChequeTempDocID, in.EmployeeID, acc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The writer fetches the created snapshot itself; only the identifiers
	// travel on the event.
	s.publishEvent(ctx, dispatch.Event{
		Signal:     dispatch.SignalEntityCreated,
		EmployeeID: in.EmployeeID,
		RecordID:   acc.ID,
		Action:     changelog.ActionCreated,
	})
	return acc, nil
}

// Update rewrites an account and, when a replacement void cheque is staged,
// promotes it in the same transaction and marks the after snapshot so the
// diff reports the replacement.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Account, error) {
	existing, err := s.store.Get(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("load bank account: %w", err)
	}

	before, err := s.collect(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	acc := &Account{
		ID:            in.ID,
		EmployeeID:    in.EmployeeID,
		BankName:      in.BankName,
		AccountNumber: in.AccountNumber,
		RoutingNumber: in.RoutingNumber,
		AccountType:   in.AccountType,
		CreatedAt:     existing.CreatedAt,
		UpdatedAt:     time.Now(),
		VoidChequeDoc: existing.VoidChequeDoc,
	}
	if in.VoidChequeTempDocID != nil {
		acc.VoidChequeDoc = in.VoidChequeTempDocID
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Update(txCtx, acc); err != nil {
			return err
		}
		if in.VoidChequeTempDocID == nil {
			return nil
		}
		if err := s.promoteVoidCheque(txCtx, *in.VoidChequeTempDocID, in.EmployeeID, acc.ID); err != nil {
			return err
		}
		// The replacement supersedes the previous cheque.
		if prev := existing.VoidChequeDoc; prev != nil && *prev != *in.VoidChequeTempDocID {
			return s.destroySuperseded(txCtx, *prev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	after, err := s.collect(ctx, in.EmployeeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "after-state capture failed, skipping event",
			"employee_id", in.EmployeeID, "error", err)
		return acc, nil
	}
	if in.VoidChequeTempDocID != nil {
		if snap := after.ByID()[acc.ID]; snap != nil {
			snap.Add(voidChequeRule.FlagLabel, true)
		}
	}

	s.publishEvent(ctx, dispatch.Event{
		Signal:      dispatch.SignalEntityUpdated,
		EmployeeID:  in.EmployeeID,
		RecordID:    acc.ID,
		Action:      changelog.ActionUpdated,
		BeforeSet:   before,
		AfterSet:    after,
		DiffOptions: []changelog.Option{changelog.WithFlagRules(voidChequeRule)},
	})
	return acc, nil
}

// Delete removes an account. The row is gone once the transaction commits,
// so the before snapshot is captured first and travels on the event.
func (s *Service) Delete(ctx context.Context, employeeID, id int64) error {
	before, err := s.snapshots.Snapshot(ctx, snapshot.KindBankAccount, snapshot.Condition{
		EmployeeID: employeeID,
		RecordID:   id,
	})
	if err != nil {
		return fmt.Errorf("capture bank account snapshot: %w", err)
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		return s.store.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, dispatch.Event{
		Signal:     dispatch.SignalEntityDeleted,
		EmployeeID: employeeID,
		RecordID:   id,
		Action:     changelog.ActionDeleted,
		Before:     before,
	})
	return nil
}

func (s *Service) collect(ctx context.Context, employeeID int64) (snapshot.Collection, error) {
	set, err := s.snapshots.Snapshots(ctx, snapshot.KindBankAccount, employeeID)
	if err != nil {
		return nil, fmt.Errorf("capture bank account snapshots: %w", err)
	}
	return set, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.db == nil {
		// Memory-backed stores have no transactions to join.
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Service) promoteVoidCheque(ctx context.Context, tempDocID uuid.UUID, employeeID, accountID int64) error {
	if _, err := s.documents.Attach(ctx, tempDocID, employeeID, snapshot.KindBankAccount, accountID); err != nil {
		return fmt.Errorf("attach void cheque: %w", err)
	}
	folder := fmt.Sprintf("employees/%d/bank-accounts", employeeID)
	if _, err := s.documents.Promote(ctx, tempDocID, folder, "", document.WithoutEvent()); err != nil {
		return fmt.Errorf("promote void cheque: %w", err)
	}
	return nil
}

// destroySuperseded removes the previous cheque document. A record that is
// already gone is fine; anything else fails the update so the old bytes are
// not orphaned.
func (s *Service) destroySuperseded(ctx context.Context, docID uuid.UUID) error {
	rec, err := s.documents.Get(ctx, docID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load superseded cheque: %w", err)
	}
	if err := s.documents.Destroy(ctx, rec, document.WithoutEvent()); err != nil {
		return fmt.Errorf("destroy superseded cheque: %w", err)
	}
	return nil
}

// publishEvent stamps the event with its kind, actor, and tenant and hands
// it to the dispatcher. The write has already committed, so a full queue is
// the dispatcher's problem, not the caller's.
func (s *Service) publishEvent(ctx context.Context, ev dispatch.Event) {
	if s.dispatcher == nil {
		return
	}
	ev.Kind = snapshot.KindBankAccount
	ev.TenantID = requestcontext.TenantID(ctx)
	ev.ActorID = requestcontext.ActorID(ctx)
	ev.ActivityPath = "User Profile > Bank Accounts"
	ev.OccurredAt = time.Now()
	s.dispatcher.Publish(ev)
}
