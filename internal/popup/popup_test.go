package popup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

type memoryStore struct {
	set   rules.Set
	saves int
	err   error
}

func (m *memoryStore) Load(context.Context) (rules.Set, error) { return m.set, m.err }

func (m *memoryStore) Save(_ context.Context, set rules.Set) error {
	m.saves++
	m.set = set
	return m.err
}

const form = `<html><body><input id="a" value="foo bar"><textarea id="b">foo foo</textarea></body></html>`

func setup(t *testing.T, saved rules.Set) (*popup.Controller, *browser.Browser, *memoryStore) {
	t.Helper()
	ctx := context.Background()
	b := browser.New()
	_, err := b.OpenHTML(ctx, "memory://form", form)
	require.NoError(t, err)
	st := &memoryStore{set: saved}
	c := popup.New(b, st)
	require.NoError(t, c.Load(ctx))
	return c, b, st
}

func TestLoad_EmptyStoreGivesOneBlankPair(t *testing.T) {
	c, _, _ := setup(t, nil)
	pairs := c.Pairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, 1, pairs[0].Number)
	assert.Empty(t, pairs[0].Find)
}

func TestReplaceAll_ReportsPluralisedCount(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setup(t, rules.Set{{Find: "foo", Replace: "baz"}})

	s := c.ReplaceAll(ctx)
	assert.Equal(t, popup.Status{Message: "Replaced 3 occurrences"}, s)

	last, ok := c.LastChange()
	require.True(t, ok)
	assert.Equal(t, 3, last.Report.Count)
	assert.Len(t, last.Report.Changes, 2)
	assert.Equal(t, "memory://form", last.URL)
}

func TestReplaceAll_Singular(t *testing.T) {
	c, _, _ := setup(t, rules.Set{{Find: "bar", Replace: "qux"}})
	assert.Equal(t, "Replaced 1 occurrence", c.ReplaceAll(context.Background()).Message)
}

func TestReplaceAll_ZeroIsNotAnError(t *testing.T) {
	c, _, _ := setup(t, rules.Set{{Find: "zzz", Replace: "y"}})
	s := c.ReplaceAll(context.Background())
	assert.Equal(t, popup.Status{Message: "Replaced 0 occurrences"}, s)
	_, ok := c.LastChange()
	assert.False(t, ok)
}

func TestReplaceAll_NoValidPairsNeverCallsEngine(t *testing.T) {
	ctx := context.Background()
	c, b, _ := setup(t, rules.Set{{Find: "", Replace: "x"}})

	s := c.ReplaceAll(ctx)
	assert.Equal(t, popup.Status{Message: popup.MsgNoPairs, IsError: true}, s)

	tab, err := b.ActiveTab()
	require.NoError(t, err)
	html, err := tab.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `value="foo bar"`)
	assert.Equal(t, popup.MsgNothingToUndo, c.Undo(ctx).Message)
}

func TestUndo_Messages(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setup(t, rules.Set{{Find: "foo", Replace: "baz"}})

	assert.Equal(t, popup.Status{Message: popup.MsgNothingToUndo, IsError: true}, c.Undo(ctx))
	c.ReplaceAll(ctx)
	assert.Equal(t, popup.Status{Message: popup.MsgUndoSuccessful}, c.Undo(ctx))
	assert.Equal(t, popup.Status{Message: popup.MsgNothingToUndo, IsError: true}, c.Undo(ctx))

	_, ok := c.LastChange()
	assert.False(t, ok)
}

func TestLastChange_ForgottenWhenPageContextGoes(t *testing.T) {
	ctx := context.Background()

	t.Run("reload", func(t *testing.T) {
		c, b, _ := setup(t, rules.Set{{Find: "foo", Replace: "baz"}})
		c.ReplaceAll(ctx)
		last, ok := c.LastChange()
		require.True(t, ok)

		require.NoError(t, b.Reload(ctx, last.TabID))
		_, ok = c.LastChange()
		assert.False(t, ok)
	})

	t.Run("close", func(t *testing.T) {
		c, b, _ := setup(t, rules.Set{{Find: "foo", Replace: "baz"}})
		c.ReplaceAll(ctx)
		last, ok := c.LastChange()
		require.True(t, ok)

		require.NoError(t, b.Close(last.TabID))
		_, ok = c.LastChange()
		assert.False(t, ok)
	})
}

func TestTransportFailuresAreErrorStatuses(t *testing.T) {
	ctx := context.Background()
	b := browser.New()
	c := popup.New(b, &memoryStore{}, popup.WithSecrets(nil))
	require.NoError(t, c.UpdatePair(ctx, 0, rules.Rule{Find: "a", Replace: "b"}))

	s := c.ReplaceAll(ctx)
	assert.True(t, s.IsError)
	assert.Equal(t, "Error: no active tab", s.Message)

	_, err := b.Open(ctx, "chrome://settings")
	require.NoError(t, err)
	s = c.Undo(ctx)
	assert.True(t, s.IsError)
	assert.Contains(t, s.Message, "Error: cannot access contents of the page")
}

func TestPairEditing_AutoSavesAndKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	c, _, st := setup(t, nil)

	require.NoError(t, c.UpdatePair(ctx, 0, rules.Rule{Find: "a", Replace: "b"}))
	require.NoError(t, c.AddPair(ctx, rules.Rule{Find: "c"}))
	assert.Equal(t, 2, st.saves)
	assert.Equal(t, rules.Set{{Find: "a", Replace: "b"}, {Find: "c"}}, st.set)

	removed, err := c.RemovePair(ctx, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	pairs := c.Pairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, 1, pairs[0].Number)
	assert.Equal(t, "c", pairs[0].Find)

	removed, err = c.RemovePair(ctx, 0)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, c.Pairs(), 1)

	_, err = c.RemovePair(ctx, 5)
	assert.True(t, errors.Is(err, popup.ErrPairIndex))
}

func TestSetPairs_EmptyBecomesBlankRow(t *testing.T) {
	ctx := context.Background()
	c, _, st := setup(t, rules.Set{{Find: "x"}})
	require.NoError(t, c.SetPairs(ctx, nil))
	assert.Equal(t, rules.Set{{}}, st.set)
	assert.Empty(t, c.ValidPairs())
}

func TestSaveFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	c, _, st := setup(t, nil)
	st.err = errors.New("disk full")
	assert.Error(t, c.AddPair(ctx, rules.Rule{Find: "x"}))
}

func TestReplaceAll_ResolvesSecretsWithoutPersistingThem(t *testing.T) {
	ctx := context.Background()
	c, b, st := setup(t, rules.Set{{Find: "foo", Replace: "{{token}}"}})
	c.SetSecrets(map[string]string{"token": "s3cr3t"})

	assert.Equal(t, "Replaced 3 occurrences", c.ReplaceAll(ctx).Message)
	tab, err := b.ActiveTab()
	require.NoError(t, err)
	html, err := tab.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `value="s3cr3t bar"`)
	assert.Equal(t, "{{token}}", st.set[0].Replace)
}

func TestNotifierSeesEveryStatus(t *testing.T) {
	ctx := context.Background()
	var seen []popup.Status
	b := browser.New()
	_, err := b.OpenHTML(ctx, "memory://form", form)
	require.NoError(t, err)
	c := popup.New(b, &memoryStore{}, popup.WithNotifier(popup.NotifierFunc(func(s popup.Status) {
		seen = append(seen, s)
	})))

	c.ReplaceAll(ctx)
	c.Undo(ctx)
	require.Len(t, seen, 2)
	assert.Equal(t, popup.MsgNoPairs, seen[0].Message)
	assert.Equal(t, popup.MsgNothingToUndo, seen[1].Message)
}
