package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scriptoria/gatekeeper/service/dao"
)

type record struct {
	ID    string
	Value string
}

func newStore() *MemoryStore[string, record] {
	return NewMemoryStore[string, record](func(r *record) string { return r.ID })
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	assert.NoError(t, store.Save(ctx, &record{ID: "a", Value: "one"}))
	assert.NoError(t, store.Save(ctx, &record{ID: "b", Value: "two"}))

	loaded, err := store.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, "one", loaded.Value)

	// Absent keys load as nil without an error.
	missing, err := store.Load(ctx, "ghost")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	all, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(all))

	// Save overwrites by key.
	assert.NoError(t, store.Save(ctx, &record{ID: "a", Value: "uno"}))
	loaded, err = store.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, "uno", loaded.Value)

	assert.NoError(t, store.Delete(ctx, "a"))
	gone, err := store.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryStoreSentinels(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, nil), dao.ErrNilEntity)

	_, err := store.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)

	assert.ErrorIs(t, store.Delete(ctx, ""), dao.ErrInvalidID)
}
