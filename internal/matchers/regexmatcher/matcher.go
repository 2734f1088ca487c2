// Package regexmatcher implements a concrete pool.Matcher backed by a
// ruleset.Registry of compiled regular expressions.
package regexmatcher

import (
	"context"
	"fmt"

	"github.com/bobmcallan/rulecheck/internal/common"
	"github.com/bobmcallan/rulecheck/internal/model"
	"github.com/bobmcallan/rulecheck/internal/ruleset"
)

// Matcher scans text blocks against every rule in its registry; category
// selection happens in the pool, which selects or skips the matcher as a
// whole.
type Matcher struct {
	id       string
	registry *ruleset.Registry
	logger   *common.Logger
}

// New creates a regex-backed Matcher drawing rules from registry.
func New(id string, registry *ruleset.Registry, logger *common.Logger) *Matcher {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &Matcher{id: id, registry: registry, logger: logger}
}

func (m *Matcher) ID() string   { return m.id }
func (m *Matcher) Type() string { return "regex" }

func (m *Matcher) Categories() []model.Category {
	return m.registry.Categories()
}

// Check evaluates every rule in the registry against every block in req,
// regardless of which categories the caller originally asked for: the pool
// selects or skips this matcher as a whole based on category overlap, but
// once selected it dispatches one job covering the matcher's entire rule
// set, not a per-category subset. The pool's reported categoryIds reflects
// this by unioning every dispatched job's full category set.
func (m *Matcher) Check(ctx context.Context, req model.MatcherRequest) ([]model.RuleMatch, error) {
	rules := m.registry.RulesForCategories(nil)

	var matches []model.RuleMatch
	for _, b := range req.Blocks {
		for _, rule := range rules {
			re := rule.Compiled()
			if re == nil {
				continue
			}
			for _, loc := range re.FindAllStringIndex(b.Text, -1) {
				from, to := loc[0], loc[1]-1
				if to < from {
					to = from
				}
				match := model.RuleMatch{
					Rule:         rule.ID,
					FromPos:      b.From + from,
					ToPos:        b.From + to,
					MatchedText:  b.Text[from : loc[1]],
					MatchContext: b.Text,
					Message:      rule.Message,
					MatcherType:  m.Type(),
				}
				if rule.Replacement != "" {
					match.Replacement = []string{rule.Replacement}
				}
				matches = append(matches, match)
			}
		}
	}

	m.logger.Debug().
		Str("matcher_id", m.id).
		Int("blocks", len(req.Blocks)).
		Int("rules", len(rules)).
		Int("matches", len(matches)).
		Msg("regex matcher check complete")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("regexmatcher: context cancelled: %w", err)
	}

	return matches, nil
}
