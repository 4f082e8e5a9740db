package store

import (
	"context"
	"encoding/json"

	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

// SavedPairsKey is the key the rule list is stored under.
const SavedPairsKey = "savedPairs"

// RuleRepository loads and saves the rule list.
type RuleRepository struct {
	store *Store
}

// NewRuleRepository returns a repository backed by s.
func NewRuleRepository(s *Store) *RuleRepository {
	return &RuleRepository{store: s}
}

// Load returns the saved rules, or nil when none were saved yet.
func (r *RuleRepository) Load(ctx context.Context) (rules.Set, error) {
	raw, err := r.store.Get(ctx, SavedPairsKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var set rules.Set
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, errors.Errorf("decoding saved pairs: %w", err)
	}
	return set, nil
}

// Save replaces the saved rules. Rows with an empty find are kept so that
// the user's half-filled pairs survive a restart.
func (r *RuleRepository) Save(ctx context.Context, set rules.Set) error {
	if set == nil {
		set = rules.Set{}
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return errors.Errorf("encoding saved pairs: %w", err)
	}
	return r.store.Set(ctx, SavedPairsKey, string(raw))
}
