// Package repository defines the store contracts used by the handlers and
// the MySQL implementations of them. Sentinel errors let higher layers tell
// failure scenarios apart regardless of the backing store.
package repository

import "errors"

// ErrNotFound is returned when a document or user does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key (the username) is already taken.
var ErrConflict = errors.New("conflict")
