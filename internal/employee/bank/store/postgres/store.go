// Package postgres persists bank account rows, joining the transaction in
// context when one is present.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hrcore/internal/employee/bank"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const accountColumns = `
	id, employee_id, bank_name, account_number, routing_number,
	account_type, void_cheque_doc_id, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*bank.Account, error) {
	var acc bank.Account
	err := row.Scan(
		&acc.ID, &acc.EmployeeID, &acc.BankName, &acc.AccountNumber,
		&acc.RoutingNumber, &acc.AccountType, &acc.VoidChequeDoc,
		&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *Store) Create(ctx context.Context, acc *bank.Account) error {
	const query = `
		INSERT INTO bank_accounts (
			employee_id, bank_name, account_number, routing_number,
			account_type, void_cheque_doc_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query,
		acc.EmployeeID, acc.BankName, acc.AccountNumber, acc.RoutingNumber,
		acc.AccountType, acc.VoidChequeDoc, acc.CreatedAt, acc.UpdatedAt,
	).Scan(&acc.ID)
	if err != nil {
		return fmt.Errorf("insert bank account: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, acc *bank.Account) error {
	const query = `
		UPDATE bank_accounts
		SET bank_name = $2, account_number = $3, routing_number = $4,
		    account_type = $5, void_cheque_doc_id = $6, updated_at = $7
		WHERE id = $1`

	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, query,
		acc.ID, acc.BankName, acc.AccountNumber, acc.RoutingNumber,
		acc.AccountType, acc.VoidChequeDoc, acc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bank account %d: %w", acc.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx,
		`DELETE FROM bank_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bank account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bank account %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*bank.Account, error) {
	query := `SELECT` + accountColumns + ` FROM bank_accounts WHERE id = $1`

	acc, err := scanAccount(txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bank account %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query bank account: %w", err)
	}
	return acc, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID int64) ([]*bank.Account, error) {
	query := `SELECT` + accountColumns + ` FROM bank_accounts WHERE employee_id = $1 ORDER BY id`

	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*bank.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list bank accounts: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	return accounts, nil
}
