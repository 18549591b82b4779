// Package store provides durable single-value slots used to persist the
// check override set. A slot holds one opaque JSON document; Write replaces
// it entirely.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the slot has never been written or
// was cleared.
var ErrNotFound = errors.New("store: slot is empty")

// Slot is a named durable value. Concurrent writers are last-write-wins.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}
