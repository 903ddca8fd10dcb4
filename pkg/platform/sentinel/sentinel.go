package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and providers return these
// (optionally wrapped) so services can decide how to react without string
// matching.
//
// - ErrNotFound: the row or file does not exist. Snapshot providers return it
//   when the entity was concurrently removed; callers treat that as "no prior
//   state", never as a request failure.
// - ErrConflict: a uniqueness or state conflict.
// - ErrUnavailable: a backing service (database, redis) is temporarily down.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
