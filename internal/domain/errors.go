package domain

import "errors"

var (
	// ErrNotFound means the requested model has no ledger file at all.
	ErrNotFound = errors.New("not found")
	// ErrEmptyData means a ledger exists but yields zero rows after
	// filtering. Distinct from ErrNotFound so callers can message each.
	ErrEmptyData = errors.New("no data")
	// ErrLegacyFormat means the ledger file holds the legacy flat-array
	// shape, which is accepted read-only.
	ErrLegacyFormat = errors.New("legacy data format")
)
