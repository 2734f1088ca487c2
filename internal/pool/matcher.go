// Package pool implements the concurrent matcher pool: admission control,
// check planning, bounded queueing, fixed-parallelism execution, per-job
// timeouts, and skipped-range coordinate re-projection.
package pool

import (
	"context"

	"github.com/bobmcallan/rulecheck/internal/model"
)

// Matcher is the capability the pool dispatches work to. Implementations
// must be safe to call concurrently from multiple workers.
type Matcher interface {
	ID() string
	Type() string
	Categories() []model.Category
	Check(ctx context.Context, req model.MatcherRequest) ([]model.RuleMatch, error)
}

// Validator is the external-facing shape of a matcher whose Categories() is
// a single synthetic category and whose Check may fan out to asynchronous
// external calls (e.g. a name-lookup service). The pool treats a Validator
// like any other Matcher through ValidatorMatcher.
type Validator interface {
	Category() model.Category
	Rules() []model.Rule
	Check(ctx context.Context, req model.MatcherRequest) ([]model.RuleMatch, error)
}

// ValidatorMatcher adapts a Validator to the Matcher capability so it can be
// registered with a MatcherPool like any other matcher.
type ValidatorMatcher struct {
	id        string
	matchType string
	validator Validator
}

// NewValidatorMatcher wraps v as a Matcher with the given id and type.
func NewValidatorMatcher(id, matchType string, v Validator) *ValidatorMatcher {
	return &ValidatorMatcher{id: id, matchType: matchType, validator: v}
}

func (m *ValidatorMatcher) ID() string   { return m.id }
func (m *ValidatorMatcher) Type() string { return m.matchType }

func (m *ValidatorMatcher) Categories() []model.Category {
	return []model.Category{m.validator.Category()}
}

func (m *ValidatorMatcher) Check(ctx context.Context, req model.MatcherRequest) ([]model.RuleMatch, error) {
	return m.validator.Check(ctx, req)
}
