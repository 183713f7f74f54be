// Package sentinel holds the storage facts stores report. The case service
// translates them into coded domain errors; handlers never see them.
package sentinel

import "errors"

var (
	// ErrNotFound: no case or party with that id.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the stored case version moved on since it was read. The
	// service retries the mutation on a fresh read.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed: a unique key (case id, snapshot id) is taken.
	ErrAlreadyUsed = errors.New("already used")
)
