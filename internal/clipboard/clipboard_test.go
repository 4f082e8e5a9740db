package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type fakeClipboard struct{ text string }

func (f *fakeClipboard) ReadAll() (string, error) { return f.text, nil }

func (f *fakeClipboard) WriteAll(text string) error {
	f.text = text
	return nil
}

func TestManager_RestoresContentBeforeFirstWrite(t *testing.T) {
	cb := &fakeClipboard{text: "user text"}
	m := NewManager(cb)
	assert.False(t, m.CanRestore())

	require.NoError(t, m.WriteAll("<html>1</html>"))
	require.NoError(t, m.WriteAll("<html>2</html>"))
	assert.True(t, m.CanRestore())

	require.NoError(t, m.Restore())
	assert.Equal(t, "user text", cb.text)
	assert.False(t, m.CanRestore())
	assert.True(t, errors.Is(m.Restore(), ErrNothingToRestore))
}

func TestManager_UserCopyBetweenWritesBecomesPrevious(t *testing.T) {
	cb := &fakeClipboard{text: "a"}
	m := NewManager(cb)
	require.NoError(t, m.WriteAll("ours"))
	cb.text = "copied by user"
	require.NoError(t, m.WriteAll("ours again"))

	require.NoError(t, m.Restore())
	assert.Equal(t, "copied by user", cb.text)
}
