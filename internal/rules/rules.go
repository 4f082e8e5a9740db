// Package rules holds the find/replace directives the popup collects and the
// engine applies.
package rules

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ErrNoRules is returned when a rule set has no rule with a non-empty find.
var ErrNoRules = errors.Base("please enter at least one find/replace pair")

// Rule is one find/replace directive.
type Rule struct {
	Find          string `json:"find" yaml:"find"`
	Replace       string `json:"replace" yaml:"replace"`
	CaseSensitive bool   `json:"caseSensitive" yaml:"caseSensitive"`
	UseRegex      bool   `json:"useRegex" yaml:"useRegex"`
}

// Set is an ordered list of rules. Later rules see the output of earlier ones.
type Set []Rule

// Valid returns the rules with a non-empty Find, in order.
func (s Set) Valid() Set {
	out := make(Set, 0, len(s))
	for _, r := range s {
		if r.Find != "" {
			out = append(out, r)
		}
	}
	return out
}

// Validate reports ErrNoRules when no rule would reach the engine.
func (s Set) Validate() error {
	if len(s.Valid()) == 0 {
		return errors.WithStack(ErrNoRules)
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_.-]+)\}\}`)

// ResolvePlaceholders substitutes {{name}} references with values from
// secrets. Unknown names are left untouched. For regex rules the secret is
// quoted so it matches literally.
func (s Set) ResolvePlaceholders(secrets map[string]string) Set {
	if len(secrets) == 0 {
		return s
	}
	out := make(Set, len(s))
	for i, r := range s {
		r.Find = substitute(r.Find, secrets, r.UseRegex)
		r.Replace = substitute(r.Replace, secrets, false)
		out[i] = r
	}
	return out
}

func substitute(text string, secrets map[string]string, quote bool) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		value, ok := secrets[name]
		if !ok {
			return m
		}
		if quote {
			return regexp.QuoteMeta(value)
		}
		return value
	})
}

// Decode reads a rule list in the given format ("json" or "yaml").
func Decode(r io.Reader, format string) (Set, error) {
	var set Set
	switch strings.ToLower(format) {
	case "json":
		if err := json.NewDecoder(r).Decode(&set); err != nil {
			return nil, errors.Errorf("decoding json rules: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&set); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("decoding yaml rules: %w", err)
		}
	default:
		return nil, errors.Errorf("unsupported rules format %q", format)
	}
	return set, nil
}

// Encode writes the rule list in the given format ("json" or "yaml").
func Encode(w io.Writer, set Set, format string) error {
	if set == nil {
		set = Set{}
	}
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(set); err != nil {
			return errors.Errorf("encoding json rules: %w", err)
		}
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(set); err != nil {
			return errors.Errorf("encoding yaml rules: %w", err)
		}
		return enc.Close()
	default:
		return errors.Errorf("unsupported rules format %q", format)
	}
	return nil
}
