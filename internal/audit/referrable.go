package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"hrcore/internal/snapshot"
)

// FallbackLabel is shown when a referrable type is unknown or the referenced
// row no longer exists. A stale pointer must never fail the whole page.
const FallbackLabel = "Record"

// referrableTarget names the table/column pair that holds a kind's display
// label. The map is the closed, enumerated form of the legacy string-code
// dispatch: every kind is declared here and a test asserts full coverage.
type referrableTarget struct {
	table  string
	column string
}

var referrableTargets = map[snapshot.Kind]referrableTarget{
	snapshot.KindGeneralProfile:   {table: "employees", column: "first_name"},
	snapshot.KindEmergencyContact: {table: "emergency_contacts", column: "contact_name"},
	snapshot.KindSkill:            {table: "skills", column: "skill_name"},
	snapshot.KindBankAccount:      {table: "bank_accounts", column: "bank_name"},
	snapshot.KindPassport:         {table: "passports", column: "passport_number"},
	snapshot.KindI94:              {table: "i94_records", column: "i94_number"},
	snapshot.KindVisa:             {table: "visas", column: "visa_number"},
	snapshot.KindPersonalDocument: {table: "personal_documents", column: "document_name"},
	snapshot.KindDependent:        {table: "dependents", column: "dependent_name"},
	snapshot.KindVacation:         {table: "vacations", column: "reason"},
	snapshot.KindAddress:          {table: "addresses", column: "city"},
	snapshot.KindEducation:        {table: "educations", column: "institution_name"},
	snapshot.KindCertification:    {table: "certifications", column: "certification_name"},
	snapshot.KindProject:          {table: "projects", column: "project_name"},
	snapshot.KindTimesheet:        {table: "timesheets", column: "period_label"},
	snapshot.KindInvoice:          {table: "invoices", column: "invoice_number"},
	snapshot.KindClient:           {table: "clients", column: "client_name"},
	snapshot.KindCompanyAsset:     {table: "company_assets", column: "asset_tag"},
	snapshot.KindInsurancePolicy:  {table: "insurance_policies", column: "policy_number"},
	snapshot.KindWorkPermit:       {table: "work_permits", column: "permit_number"},
	snapshot.KindSignedDocument:   {table: "signed_documents", column: "document_name"},
	snapshot.KindPayrollProfile:   {table: "payroll_profiles", column: "pay_grade"},
}

// LabelResolver turns a (kind, record id) pair into a human label for the
// activity view.
type LabelResolver interface {
	Label(ctx context.Context, kind snapshot.Kind, id int64) string
}

// Resolver resolves referrable labels against the tenant database.
type Resolver struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewResolver(db *sql.DB, logger *slog.Logger) *Resolver {
	return &Resolver{db: db, logger: logger}
}

// Label returns the display value of the referenced row, or FallbackLabel for
// unknown kinds, vanished rows, and query failures.
func (r *Resolver) Label(ctx context.Context, kind snapshot.Kind, id int64) string {
	target, ok := referrableTargets[kind]
	if !ok {
		return FallbackLabel
	}

	// table and column come from the closed map above, never from input.
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", target.column, target.table)

	var label sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&label); err != nil {
		if err != sql.ErrNoRows {
			r.logger.WarnContext(ctx, "referrable label lookup failed",
				"kind", kind.String(), "id", id, "error", err)
		}
		return FallbackLabel
	}
	if !label.Valid || label.String == "" {
		return FallbackLabel
	}
	return label.String
}
