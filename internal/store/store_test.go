package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/rules"
	"github.com/TanaroSch/page-regex-replace/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, s.Set(ctx, "k", "one"))
	require.NoError(t, s.Set(ctx, "k", "two"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := store.Open(context.Background(), "")
	assert.Error(t, err)
}

func TestRuleRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	repo := store.NewRuleRepository(s)

	set, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, set)

	want := rules.Set{
		{Find: "foo", Replace: "baz"},
		{Find: `\d+`, Replace: "#", CaseSensitive: true, UseRegex: true},
		{Find: "", Replace: "draft"},
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := s.Get(ctx, store.SavedPairsKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"caseSensitive":true`)
	assert.Contains(t, raw, `"useRegex":true`)
}

func TestRuleRepository_CorruptValue(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Set(ctx, store.SavedPairsKey, "{not json"))
	_, err := store.NewRuleRepository(s).Load(ctx)
	assert.Error(t, err)
}
