package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrcore/pkg/platform/sentinel"
)

// NewPostgresRegistry wires a provider for every trackable entity kind
// against the tenant's relational connection. Lookup tables (countries,
// visa types, document categories) are joined in the queries so snapshots
// carry display names, never foreign keys.
func NewPostgresRegistry(db *sql.DB, dates DateFormatter) *Registry {
	r := NewRegistry()

	r.Register(KindGeneralProfile, &generalProfileProvider{db: db, dates: dates})
	r.Register(KindEmergencyContact, &emergencyContactProvider{db: db})
	r.Register(KindSkill, &skillProvider{db: db})
	r.Register(KindPassport, &passportProvider{db: db, dates: dates})
	r.Register(KindI94, &i94Provider{db: db, dates: dates})
	r.Register(KindVisa, &visaProvider{db: db, dates: dates})
	r.Register(KindPersonalDocument, &personalDocumentProvider{db: db, dates: dates})
	r.Register(KindVacation, &vacationProvider{db: db, dates: dates})

	bank := &bankAccountProvider{db: db}
	r.Register(KindBankAccount, bank)
	r.RegisterCollection(KindBankAccount, bank)

	dependent := &dependentProvider{db: db, dates: dates}
	r.Register(KindDependent, dependent)
	r.RegisterCollection(KindDependent, dependent)

	return r
}

func notFound(err error, kind Kind) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s snapshot: %w", kind, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s snapshot: %w", kind, err)
}

type generalProfileProvider struct {
	db    *sql.DB
	dates DateFormatter
}

func (p *generalProfileProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT e.first_name, e.last_name, e.email, e.phone,
		       e.date_of_birth, e.gender, e.marital_status,
		       c.country_name, e.date_of_joining
		FROM employees e
		LEFT JOIN countries c ON c.id = e.country_id
		WHERE e.id = $1`

	var (
		firstName, lastName          string
		email, phone                 *string
		dateOfBirth, dateOfJoining   *time.Time
		gender, marital, countryName *string
	)
	err := p.db.QueryRowContext(ctx, q, cond.EmployeeID).Scan(
		&firstName, &lastName, &email, &phone,
		&dateOfBirth, &gender, &marital, &countryName, &dateOfJoining,
	)
	if err != nil {
		return nil, notFound(err, KindGeneralProfile)
	}

	fullName := strings.TrimSpace(firstName + " " + lastName)
	s := New(cond.EmployeeID, "Name", fullName)
	s.Add("First Name", firstName)
	s.Add("Last Name", lastName)
	s.Add("Email", Text(email))
	s.Add("Phone", Text(phone))
	s.Add("Date of Birth", p.dates.FormatDate(ctx, dateOfBirth))
	s.Add("Gender", Text(gender))
	s.Add("Marital Status", Text(marital))
	s.Add("Country", Text(countryName))
	s.Add("Date of Joining", p.dates.FormatDate(ctx, dateOfJoining))
	return s, nil
}

type emergencyContactProvider struct {
	db *sql.DB
}

func (p *emergencyContactProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT contact_name, relationship, phone, email
		FROM emergency_contacts
		WHERE id = $1`

	var (
		name                       string
		relationship, phone, email *string
	)
	err := p.db.QueryRowContext(ctx, q, cond.RecordID).Scan(&name, &relationship, &phone, &email)
	if err != nil {
		return nil, notFound(err, KindEmergencyContact)
	}

	s := New(cond.RecordID, "Name", name)
	s.Add("Name", name)
	s.Add("Relationship", Text(relationship))
	s.Add("Phone", Text(phone))
	s.Add("Email", Text(email))
	return s, nil
}

type skillProvider struct {
	db *sql.DB
}

func (p *skillProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT skill_name, years_of_experience, proficiency
		FROM skills
		WHERE id = $1`

	var (
		name        string
		years       *int64
		proficiency *string
	)
	err := p.db.QueryRowContext(ctx, q, cond.RecordID).Scan(&name, &years, &proficiency)
	if err != nil {
		return nil, notFound(err, KindSkill)
	}

	s := New(cond.RecordID, "Skill", name)
	s.Add("Skill", name)
	s.Add("Years of Experience", Number(years))
	s.Add("Proficiency", Text(proficiency))
	return s, nil
}

type bankAccountProvider struct {
	db *sql.DB
}

const bankAccountColumns = `
	b.id, b.bank_name, b.account_number, b.routing_number, b.account_type`

func (p *bankAccountProvider) scan(row interface{ Scan(...any) error }) (*Snapshot, error) {
	var (
		id                      int64
		bankName, accountNumber string
		routingNumber, acctType *string
	)
	if err := row.Scan(&id, &bankName, &accountNumber, &routingNumber, &acctType); err != nil {
		return nil, err
	}

	s := New(id, "Bank Name", bankName)
	s.Add("Bank Name", bankName)
	s.Add("Account Number", accountNumber)
	s.Add("Routing Number", Text(routingNumber))
	s.Add("Account Type", Text(acctType))
	return s, nil
}

func (p *bankAccountProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	q := `SELECT` + bankAccountColumns + `
		FROM bank_accounts b
		WHERE b.id = $1`

	s, err := p.scan(p.db.QueryRowContext(ctx, q, cond.RecordID))
	if err != nil {
		return nil, notFound(err, KindBankAccount)
	}
	return s, nil
}

func (p *bankAccountProvider) Snapshots(ctx context.Context, employeeID int64) (Collection, error) {
	q := `SELECT` + bankAccountColumns + `
		FROM bank_accounts b
		WHERE b.employee_id = $1
		ORDER BY b.id`

	rows, err := p.db.QueryContext(ctx, q, employeeID)
	if err != nil {
		return nil, fmt.Errorf("bank account snapshots: %w", err)
	}
	defer rows.Close()

	var collection Collection
	for rows.Next() {
		s, err := p.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("bank account snapshots: %w", err)
		}
		collection = append(collection, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bank account snapshots: %w", err)
	}
	return collection, nil
}

type passportProvider struct {
	db    *sql.DB
	dates DateFormatter
}

func (p *passportProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT pp.passport_number, c.country_name, pp.date_of_issue, pp.date_of_expiry
		FROM passports pp
		LEFT JOIN countries c ON c.id = pp.country_id
		WHERE pp.id = $1`

	var (
		number          string
		countryName     *string
		issued, expires *time.Time
	)
	err := p.db.QueryRowContext(ctx, q, cond.RecordID).Scan(&number, &countryName, &issued, &expires)
	if err != nil {
		return nil, notFound(err, KindPassport)
	}

	s := New(cond.RecordID, "Passport Number", number)
	s.Add("Passport Number", number)
	s.Add("Country of Issue", Text(countryName))
	s.Add("Date of Issue", p.dates.FormatDate(ctx, issued))
	s.Add("Date of Expiry", p.dates.FormatDate(ctx, expires))
	return s, nil
}

type i94Provider struct {
	db    *sql.DB
	dates DateFormatter
}

func (p *i94Provider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT i94_number, port_of_entry, date_of_entry, date_of_expiry
		FROM i94_records
		WHERE id = $1`

	var (
		number          string
		port            *string
		entered, expiry *time.Time
	)
	err := p.db.QueryRowContext(ctx, q, cond.RecordID).Scan(&number, &port, &entered, &expiry)
	if err != nil {
		return nil, notFound(err, KindI94)
	}

	s := New(cond.RecordID, "I-94 Number", number)
	s.Add("I-94 Number", number)
	s.Add("Port of Entry", Text(port))
	s.Add("Date of Entry", p.dates.FormatDate(ctx, entered))
	s.Add("Date of Expiry", p.dates.FormatDate(ctx, expiry))
	return s, nil
}

type visaProvider struct {
	db    *sql.DB
	dates DateFormatter
}

func (p *visaProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT v.visa_number, vt.type_name, c.country_name, v.date_of_issue, v.date_of_expiry
		FROM visas v
		LEFT JOIN visa_types vt ON vt.id = v.visa_type_id
		LEFT JOIN countries c ON c.id = v.country_id
		WHERE v.id = $1`

	var (
		number            string
		visaType, country *string
		issued, expiry    *time.Time
	)
	err := p.db.QueryRowContext(ctx, q, cond.RecordID).Scan(&number, &visaType, &country, &issued, &expiry)
	if err != nil {
		return nil, notFound(err, KindVisa)
	}

	s := New(cond.RecordID, "Visa Number", number)
	s.Add("Visa Number", number)
	s.Add("Visa Type", Text(visaType))
	s.Add("Country", Text(country))
	s.Add("Date of Issue", p.dates.FormatDate(ctx, issued))
	s.Add("Date of Expiry", p.dates.FormatDate(ctx, expiry))
	return s, nil
}

type personalDocumentProvider struct {
	db    *sql.DB
	dates DateFormatter
}

func (p *personalDocumentProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT d.document_name, dc.category_name, d.date_of_expiry
		FROM personal_documents d
		LEFT JOIN document_categories dc ON dc.id = d.category_id
		WHERE d.id = $1`

	var (
		name     string
		category *string
		expiry   *time.Time
	)
	err := p.db.QueryRowContext(ctx, q, cond.RecordID).Scan(&name, &category, &expiry)
	if err != nil {
		return nil, notFound(err, KindPersonalDocument)
	}

	s := New(cond.RecordID, "Document Name", name)
	s.Add("Document Name", name)
	s.Add("Category", Text(category))
	s.Add("Date of Expiry", p.dates.FormatDate(ctx, expiry))
	return s, nil
}

type dependentProvider struct {
	db    *sql.DB
	dates DateFormatter
}

const dependentColumns = `
	d.id, d.dependent_name, d.relationship, d.date_of_birth, d.gender`

func (p *dependentProvider) scan(ctx context.Context, row interface{ Scan(...any) error }) (*Snapshot, error) {
	var (
		id                   int64
		name                 string
		relationship, gender *string
		dateOfBirth          *time.Time
	)
	if err := row.Scan(&id, &name, &relationship, &dateOfBirth, &gender); err != nil {
		return nil, err
	}

	s := New(id, "Name", name)
	s.Add("Name", name)
	s.Add("Relationship", Text(relationship))
	s.Add("Date of Birth", p.dates.FormatDate(ctx, dateOfBirth))
	s.Add("Gender", Text(gender))
	return s, nil
}

func (p *dependentProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	q := `SELECT` + dependentColumns + `
		FROM dependents d
		WHERE d.id = $1`

	s, err := p.scan(ctx, p.db.QueryRowContext(ctx, q, cond.RecordID))
	if err != nil {
		return nil, notFound(err, KindDependent)
	}
	return s, nil
}

func (p *dependentProvider) Snapshots(ctx context.Context, employeeID int64) (Collection, error) {
	q := `SELECT` + dependentColumns + `
		FROM dependents d
		WHERE d.employee_id = $1
		ORDER BY d.id`

	rows, err := p.db.QueryContext(ctx, q, employeeID)
	if err != nil {
		return nil, fmt.Errorf("dependent snapshots: %w", err)
	}
	defer rows.Close()

	var collection Collection
	for rows.Next() {
		s, err := p.scan(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("dependent snapshots: %w", err)
		}
		collection = append(collection, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dependent snapshots: %w", err)
	}
	return collection, nil
}

type vacationProvider struct {
	db    *sql.DB
	dates DateFormatter
}

func (p *vacationProvider) Snapshot(ctx context.Context, cond Condition) (*Snapshot, error) {
	const q = `
		SELECT vt.type_name, v.start_date, v.end_date, v.reason
		FROM vacations v
		LEFT JOIN vacation_types vt ON vt.id = v.vacation_type_id
		WHERE v.id = $1`

	var (
		typeName, reason *string
		start, end       *time.Time
	)
	err := p.db.QueryRowContext(ctx, q, cond.RecordID).Scan(&typeName, &start, &end, &reason)
	if err != nil {
		return nil, notFound(err, KindVacation)
	}

	typeValue := Text(typeName)
	name, _ := typeValue.(string)

	s := New(cond.RecordID, "Vacation Type", name)
	s.Add("Vacation Type", typeValue)
	s.Add("Start Date", p.dates.FormatDate(ctx, start))
	s.Add("End Date", p.dates.FormatDate(ctx, end))
	s.Add("Reason", Text(reason))
	return s, nil
}
