package snapshot

import (
	"context"
	"fmt"
	"time"

	"hrcore/pkg/platform/sentinel"
)

// Condition identifies the record(s) a provider should read. RecordID selects
// one child row; EmployeeID scopes collection reads and singleton kinds that
// hang directly off the employee.
type Condition struct {
	EmployeeID int64
	RecordID   int64
}

// Provider produces the current snapshot for a singleton entity kind. A
// provider performs read-only queries, joining lookup tables so foreign keys
// surface as display names. When the row no longer exists it returns
// sentinel.ErrNotFound; callers treat that as "no prior state".
type Provider interface {
	Snapshot(ctx context.Context, cond Condition) (*Snapshot, error)
}

// CollectionProvider produces snapshots for a collection-valued entity kind,
// one per child row, keyed by record id.
type CollectionProvider interface {
	Snapshots(ctx context.Context, employeeID int64) (Collection, error)
}

// DateFormatter renders dates in the tenant's configured format. Implemented
// by the tenant settings service.
type DateFormatter interface {
	FormatDate(ctx context.Context, t *time.Time) string
}

// Registry maps entity kinds to their providers.
type Registry struct {
	providers   map[Kind]Provider
	collections map[Kind]CollectionProvider
}

func NewRegistry() *Registry {
	return &Registry{
		providers:   make(map[Kind]Provider),
		collections: make(map[Kind]CollectionProvider),
	}
}

// Register installs a singleton provider for a kind.
func (r *Registry) Register(k Kind, p Provider) {
	r.providers[k] = p
}

// RegisterCollection installs a collection provider for a kind.
func (r *Registry) RegisterCollection(k Kind, p CollectionProvider) {
	r.collections[k] = p
}

// Snapshot resolves the singleton provider for a kind and builds a snapshot.
func (r *Registry) Snapshot(ctx context.Context, k Kind, cond Condition) (*Snapshot, error) {
	p, ok := r.providers[k]
	if !ok {
		return nil, fmt.Errorf("no snapshot provider for kind %q: %w", k, sentinel.ErrNotFound)
	}
	return p.Snapshot(ctx, cond)
}

// Snapshots resolves the collection provider for a kind.
func (r *Registry) Snapshots(ctx context.Context, k Kind, employeeID int64) (Collection, error) {
	p, ok := r.collections[k]
	if !ok {
		return nil, fmt.Errorf("no collection provider for kind %q: %w", k, sentinel.ErrNotFound)
	}
	return p.Snapshots(ctx, employeeID)
}

// HasCollection reports whether the kind is collection-valued.
func (r *Registry) HasCollection(k Kind) bool {
	_, ok := r.collections[k]
	return ok
}
