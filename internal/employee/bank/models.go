// Package bank manages employee bank accounts, the reference business entity
// for the change-tracking pipeline: every write captures before/after
// snapshots and publishes a lifecycle event once its transaction commits.
package bank

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is one employee bank account row.
type Account struct {
	ID            int64      `json:"id"`
	EmployeeID    int64      `json:"employee_id"`
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	RoutingNumber *string    `json:"routing_number,omitempty"`
	AccountType   *string    `json:"account_type,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	VoidChequeDoc *uuid.UUID `json:"void_cheque_doc_id,omitempty"`
}

// CreateInput carries a new account. VoidChequeTempDocID references a staged
// upload to promote alongside the insert.
type CreateInput struct {
	EmployeeID          int64
	BankName            string
	AccountNumber       string
	RoutingNumber       *string
	AccountType         *string
	VoidChequeTempDocID *uuid.UUID
}

// UpdateInput carries changed account fields. A non-nil VoidChequeTempDocID
// replaces the void cheque document.
type UpdateInput struct {
	ID                  int64
	EmployeeID          int64
	BankName            string
	AccountNumber       string
	RoutingNumber       *string
	AccountType         *string
	VoidChequeTempDocID *uuid.UUID
}

// Store persists accounts. Implementations join an in-flight transaction
// from context.
type Store interface {
	Create(ctx context.Context, acc *Account) error
	Update(ctx context.Context, acc *Account) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Account, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*Account, error)
}
