package policy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/scriptoria/gatekeeper/model"
)

// ErrDuplicateRule is returned when registering a rule whose id is already
// present.  Detect with errors.Is.
var ErrDuplicateRule = errors.New("policy: duplicate rule id")

// entry pairs a rule with its registration sequence.  The sequence is the
// documented tie-break for equal priorities: first registered wins.
type entry struct {
	rule *Rule
	seq  int
}

// Registry owns the mutable, ordered rule set.  It is safe for concurrent
// use so that an administrative surface can add and remove rules while
// evaluations are in flight.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	byID    map[string]int // id -> index into entries
	nextSeq int
}

// NewRegistry returns a registry pre-populated with the supplied rules.
// Registration order is preserved and meaningful (see Evaluator tie-break).
func NewRegistry(rules ...*Rule) (*Registry, error) {
	ret := &Registry{byID: make(map[string]int)}
	for _, rule := range rules {
		if err := ret.Add(rule); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Add registers a rule.  It fails with ErrDuplicateRule when the id is
// already present.
func (r *Registry) Add(rule *Rule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("policy: invalid rule: missing id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[rule.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
	}
	r.byID[rule.ID] = len(r.entries)
	r.entries = append(r.entries, entry{rule: rule, seq: r.nextSeq})
	r.nextSeq++
	return nil
}

// Remove unregisters a rule by id.  Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.entries); i++ {
		r.byID[r.entries[i].rule.ID] = i
	}
}

// Lookup returns the rule registered under id, or nil.
func (r *Registry) Lookup(id string) *Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx, ok := r.byID[id]; ok {
		return r.entries[idx].rule
	}
	return nil
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ApplicableRules returns rules whose mode set contains mode or ModeAll, in
// registration order together with their sequence numbers.
func (r *Registry) ApplicableRules(mode model.Mode) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]*Rule, 0, len(r.entries))
	for _, e := range r.entries {
		if e.rule.AppliesTo(mode) {
			ret = append(ret, e.rule)
		}
	}
	return ret
}

// applicable returns rule/sequence pairs for the evaluator so that the
// insertion-order tie-break survives sorting.
func (r *Registry) applicable(mode model.Mode) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.rule.AppliesTo(mode) {
			ret = append(ret, e)
		}
	}
	return ret
}
