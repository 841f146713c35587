package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and upstream
// clients return these (optionally wrapped) so services can translate them
// into domain errors.
//
//   - ErrNotFound: the entity does not exist upstream or in the store
//   - ErrUnavailable: the upstream service or store cannot be reached
//   - ErrBadData: the upstream answered with something that does not decode
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrBadData     = errors.New("bad data")
)
