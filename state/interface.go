// Package state persists configuration entries created by the setup flow.
//
// Usage:
//   - Construct a FileStore with OpenFileStore and pass it to the flow manager.
package state

import (
	"context"
	"errors"
)

var (
	// ErrEntryNotFound is returned when no entry has the requested ID.
	ErrEntryNotFound = errors.New("configuration entry not found")
	// ErrDuplicateName is returned by Create when the display name is already taken.
	ErrDuplicateName = errors.New("configuration entry name already exists")
)

// EntryStore is the registry of configuration entries.
type EntryStore interface {
	// ListDisplayNames returns the display names of every persisted entry.
	ListDisplayNames(ctx context.Context) (map[string]struct{}, error)
	// Create persists a new entry titled title holding data.
	Create(ctx context.Context, title string, data map[string]interface{}) (Entry, error)

	Entries(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	// UpdateOptions replaces the stored options of an entry.
	UpdateOptions(ctx context.Context, id string, options map[string]interface{}) (Entry, error)
}
