package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: uniqueness or state conflict (duplicate issuance id)
// - ErrUnreachable: network-level failure reaching a dependency
// - ErrAccessDenied: the dependency rejected our credentials or policy
// - ErrUnavailable: dependency temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnreachable  = errors.New("unreachable")
	ErrAccessDenied = errors.New("access denied")
	ErrUnavailable  = errors.New("unavailable")
)
