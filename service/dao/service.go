package dao

import (
	"context"
)

// Service is the generic persistence contract behind the approval tables.
// Implementations keep entities of type *T keyed by a comparable key K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
