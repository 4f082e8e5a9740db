package rules

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestValid_DropsEmptyFind(t *testing.T) {
	set := Set{
		{Find: "foo", Replace: "bar"},
		{Find: "", Replace: "ignored"},
		{Find: "baz", Replace: ""},
	}

	got := set.Valid()
	require.Len(t, got, 2)
	assert.Equal(t, "foo", got[0].Find)
	assert.Equal(t, "baz", got[1].Find)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Set{{Find: "a"}}.Validate())

	err := Set{{Find: "", Replace: "x"}}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRules))

	assert.True(t, errors.Is(Set(nil).Validate(), ErrNoRules))
}

func TestResolvePlaceholders(t *testing.T) {
	secrets := map[string]string{"api_key": "sk-1.2", "name": "Ada"}
	set := Set{
		{Find: "{{api_key}}", Replace: "[KEY]"},
		{Find: "{{api_key}}+", Replace: "x", UseRegex: true},
		{Find: "hello", Replace: "hi {{name}} {{unknown}}"},
	}

	got := set.ResolvePlaceholders(secrets)
	assert.Equal(t, "sk-1.2", got[0].Find)
	assert.Equal(t, `sk-1\.2+`, got[1].Find)
	assert.Equal(t, "hi Ada {{unknown}}", got[2].Replace)
	assert.Equal(t, "{{api_key}}", set[0].Find, "original set must not change")
}

func TestEncodeDecode_YAML(t *testing.T) {
	set := Set{{Find: "colour", Replace: "color", CaseSensitive: true}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, set, "yaml"))
	assert.Contains(t, buf.String(), "caseSensitive: true")

	got, err := Decode(&buf, "yml")
	require.NoError(t, err)
	assert.Equal(t, set, got)
}

func TestDecode_JSONUsesExtensionFieldNames(t *testing.T) {
	in := `[{"find":"a.b","replace":"c","caseSensitive":false,"useRegex":true}]`

	got, err := Decode(strings.NewReader(in), "json")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].UseRegex)
	assert.Equal(t, "a.b", got[0].Find)
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, err := Decode(strings.NewReader(""), "toml")
	assert.Error(t, err)
}
