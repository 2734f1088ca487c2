package ruleset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bobmcallan/rulecheck/internal/model"
)

// Registry holds compiled rules grouped by category. It is safe for
// concurrent reads; mutation is expected at startup, before matchers begin
// serving checks.
type Registry struct {
	mu         sync.RWMutex
	rules      []*Rule
	categories map[string]model.Category
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{categories: make(map[string]model.Category)}
}

// AddCategory registers a category's display metadata.
func (r *Registry) AddCategory(c model.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
}

// AddRule compiles and adds a rule. Its category must already be
// registered via AddCategory.
func (r *Registry) AddRule(rule *Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[rule.CategoryID]; !ok {
		return fmt.Errorf("ruleset: category %q not registered for rule %q", rule.CategoryID, rule.ID)
	}
	if err := rule.Compile(); err != nil {
		return err
	}
	r.rules = append(r.rules, rule)
	return nil
}

// RulesForCategories returns every compiled rule whose category is in
// categoryIDs. An empty categoryIDs returns every rule.
func (r *Registry) RulesForCategories(categoryIDs map[string]bool) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(categoryIDs) == 0 {
		return append([]*Rule(nil), r.rules...)
	}
	out := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if categoryIDs[rule.CategoryID] {
			out = append(out, rule)
		}
	}
	return out
}

// Categories returns every registered category, sorted by id.
func (r *Registry) Categories() []model.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return cats
}
