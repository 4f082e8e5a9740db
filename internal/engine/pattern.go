package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	gocache "github.com/patrickmn/go-cache"
)

const (
	patternCacheExpiration = 10 * time.Minute
	patternCacheCleanup    = 30 * time.Minute
)

// regexSpecials are the characters escaped before a literal find is compiled.
const regexSpecials = `.*+?^${}()|[]\`

// escapeLiteral backslash-escapes every regex metacharacter in s.
func escapeLiteral(s string) string {
	if !strings.ContainsAny(s, regexSpecials) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if strings.ContainsRune(regexSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

type compiled struct {
	re  *regexp2.Regexp
	err error
}

// patternCache memoises compiled patterns, failures included, keyed by source
// and case flag.
type patternCache struct {
	cache   *gocache.Cache
	timeout time.Duration
}

func newPatternCache(timeout time.Duration) *patternCache {
	return &patternCache{
		cache:   gocache.New(patternCacheExpiration, patternCacheCleanup),
		timeout: timeout,
	}
}

func (c *patternCache) compile(source string, caseSensitive bool) (*regexp2.Regexp, error) {
	key := fmt.Sprintf("%t\x00%s", caseSensitive, source)
	if v, ok := c.cache.Get(key); ok {
		if entry, ok := v.(compiled); ok {
			return entry.re, entry.err
		}
	}

	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if !caseSensitive {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(source, opts)
	if err == nil && c.timeout > 0 {
		re.MatchTimeout = c.timeout
	}
	c.cache.SetDefault(key, compiled{re: re, err: err})
	return re, err
}

// countMatches returns the number of global, non-overlapping matches.
func countMatches(re *regexp2.Regexp, text string) (int, error) {
	n := 0
	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		n++
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// replaceAll substitutes every match using JavaScript replacement patterns.
func replaceAll(re *regexp2.Regexp, text, replacement string) (string, error) {
	if !strings.Contains(replacement, "$") {
		return re.Replace(text, replacement, -1, -1)
	}
	input := []rune(text)
	named := hasNamedGroups(re)
	return re.ReplaceFunc(text, func(m regexp2.Match) string {
		return expand(replacement, &m, input, named)
	}, -1, -1)
}

func hasNamedGroups(re *regexp2.Regexp) bool {
	for _, name := range re.GetGroupNames() {
		if _, err := strconv.Atoi(name); err != nil {
			return true
		}
	}
	return false
}

// expand implements the GetSubstitution rules of String.prototype.replace.
func expand(replacement string, m *regexp2.Match, input []rune, named bool) string {
	groups := m.GroupCount() - 1
	var b strings.Builder
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c != '$' || i+1 == len(replacement) {
			b.WriteByte(c)
			continue
		}
		next := replacement[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(m.String())
			i++
		case next == '`':
			b.WriteString(string(input[:m.Index]))
			i++
		case next == '\'':
			b.WriteString(string(input[m.Index+m.Length:]))
			i++
		case isDigit(next):
			n, width := int(next-'0'), 1
			if i+2 < len(replacement) && isDigit(replacement[i+2]) {
				if nn := n*10 + int(replacement[i+2]-'0'); nn >= 1 && nn <= groups {
					n, width = nn, 2
				}
			}
			if n < 1 || n > groups {
				b.WriteByte('$')
				continue
			}
			b.WriteString(groupText(m.GroupByNumber(n)))
			i += width
		case next == '<' && named:
			end := strings.IndexByte(replacement[i+2:], '>')
			if end < 0 {
				b.WriteByte('$')
				continue
			}
			b.WriteString(groupText(m.GroupByName(replacement[i+2 : i+2+end])))
			i += end + 2
		default:
			b.WriteByte('$')
		}
	}
	return b.String()
}

func groupText(g *regexp2.Group) string {
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
