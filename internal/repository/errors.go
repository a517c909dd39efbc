// Package repository is the MySQL persistence layer. Each aggregate gets
// one repo struct over *sql.DB; methods either read, or perform a single
// (possibly conditional) write. Sentinel errors let the handlers and
// services distinguish failure cases without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not a party to. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed because
// of dependent state, such as deleting an item with an active loan.
// Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// Not-found sentinels per aggregate. Repos return these instead of
// sql.ErrNoRows so callers do not need database/sql imports.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrPenaltyNotFound      = errors.New("pending penalty not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ErrEmailExists is returned when registration hits the unique constraint
// on email or username.
var ErrEmailExists = errors.New("email or username already exists")
