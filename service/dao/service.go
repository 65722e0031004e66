// Package dao defines the generic persistence contract shared by the
// approval queue and the budget ledger store.
package dao

import (
	"context"
)

// Filter selects records in List; all filters must match.
type Filter[T any] func(*T) bool

type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	// Load returns ErrNotFound for an unknown key.
	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, filters ...Filter[T]) ([]*T, error)
}

// Matches reports whether v passes every filter.
func Matches[T any](v *T, filters ...Filter[T]) bool {
	for _, filter := range filters {
		if filter != nil && !filter(v) {
			return false
		}
	}
	return true
}
