package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TanaroSch/page-regex-replace/internal/popup"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

func TestRuleTitle(t *testing.T) {
	assert.Equal(t, "#1 (empty)", ruleTitle(popup.Pair{Number: 1}))
	assert.Equal(t, "#2 foo → bar", ruleTitle(popup.Pair{Number: 2, Rule: rules.Rule{Find: "foo", Replace: "bar"}}))
	assert.Equal(t, `#3 \d+ → # /re/ Aa`, ruleTitle(popup.Pair{Number: 3, Rule: rules.Rule{Find: `\d+`, Replace: "#", UseRegex: true, CaseSensitive: true}}))
}

func TestTabTitle_Truncates(t *testing.T) {
	long := "ééééééééééééééééééééééééééééééééééééééééééééééééééééé"
	got := tabTitle(TabEntry{ID: 4, Title: long})
	assert.Equal(t, "[4] "+string([]rune(long)[:47])+"…", got)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "info", Level(99).String())
}
