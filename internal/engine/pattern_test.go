package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLiteral(t *testing.T) {
	assert.Equal(t, "plain", escapeLiteral("plain"))
	assert.Equal(t, `a\.b\*\(c\)\[d\]\{1\}\^\$\|\?\+\\`, escapeLiteral(`a.b*(c)[d]{1}^$|?+\`))
	assert.Equal(t, "é\\.ü", escapeLiteral("é.ü"))
}

func TestPatternCache_MemoisesFailures(t *testing.T) {
	c := newPatternCache(time.Second)

	_, err1 := c.compile("(", true)
	_, err2 := c.compile("(", true)
	require.Error(t, err1)
	assert.Equal(t, err1, err2)

	re1, err := c.compile("x", false)
	require.NoError(t, err)
	re2, err := c.compile("x", false)
	require.NoError(t, err)
	assert.Same(t, re1, re2)

	re3, err := c.compile("x", true)
	require.NoError(t, err)
	assert.NotSame(t, re1, re3, "case flag is part of the key")
	assert.Equal(t, time.Second, re3.MatchTimeout)
}

func TestPatternCache_CompileFlags(t *testing.T) {
	c := newPatternCache(time.Second)

	insensitive, err := c.compile("abc", false)
	require.NoError(t, err)
	ok, err := insensitive.MatchString("xABCx")
	require.NoError(t, err)
	assert.True(t, ok)

	sensitive, err := c.compile("abc", true)
	require.NoError(t, err)
	ok, err = sensitive.MatchString("xABCx")
	require.NoError(t, err)
	assert.False(t, ok)

	// ECMAScript classes are ASCII only.
	word, err := c.compile(`^\w$`, true)
	require.NoError(t, err)
	ok, err = word.MatchString("é")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountMatches_NonOverlapping(t *testing.T) {
	c := newPatternCache(0)
	re, err := c.compile("aa", true)
	require.NoError(t, err)

	n, err := countMatches(re, "aaaaa")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReplaceAll_JavaScriptSubstitutions(t *testing.T) {
	c := newPatternCache(0)
	re, err := c.compile(`(b)(c)?`, true)
	require.NoError(t, err)

	tests := []struct {
		replacement string
		want        string
	}{
		{"x", "axd"},
		{"[$&]", "a[b]d"},
		{"$$", "a$d"},
		{"[$`]", "a[a]d"},
		{"[$']", "a[d]d"},
		{"$1$1", "abbd"},
		{"<$2>", "a<>d"},
		{"$3", "a$3d"},
		{"$0", "a$0d"},
		{"$01", "abd"},
		{"$<name>", "a$<name>d"},
		{"end$", "aend$d"},
	}
	for _, tt := range tests {
		got, err := replaceAll(re, "abd", tt.replacement)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "replacement %q", tt.replacement)
	}
}

func TestReplaceAll_MultibyteContext(t *testing.T) {
	c := newPatternCache(0)
	re, err := c.compile("ü", true)
	require.NoError(t, err)

	got, err := replaceAll(re, "äüö", "[$`|$']")
	require.NoError(t, err)
	assert.Equal(t, "ä[ä|ö]ö", got)
}
