package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/routegate/service/dao"
)

type record struct {
	ID    string
	Value int
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[string, record](func(r *record) string { return r.ID })

	assert.ErrorIs(t, s.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, s.Save(ctx, &record{}), dao.ErrInvalidID)
	assert.NoError(t, s.Save(ctx, &record{ID: "a", Value: 1}))
	assert.NoError(t, s.Save(ctx, &record{ID: "b", Value: 2}))
	assert.NoError(t, s.Save(ctx, &record{ID: "a", Value: 3}))

	loaded, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 3, loaded.Value)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	all, err := s.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.List(ctx, func(r *record) bool { return r.Value > 2 })
	assert.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "a", filtered[0].ID)

	assert.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), dao.ErrNotFound)
}
