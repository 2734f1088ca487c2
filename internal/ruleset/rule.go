// Package ruleset provides a minimal in-memory rule/category registry
// consumed by internal/matchers/regexmatcher. It stands in for the
// out-of-scope rule-storage and rule-XML-ingestion collaborators.
package ruleset

import (
	"fmt"
	"regexp"
)

// Rule is one compiled text-matching rule belonging to a category.
type Rule struct {
	ID          string `json:"id" yaml:"id"`
	CategoryID  string `json:"category_id" yaml:"category_id"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	Message     string `json:"message" yaml:"message"`
	Replacement string `json:"replacement,omitempty" yaml:"replacement,omitempty"`

	compiled *regexp.Regexp
}

// Compile parses Pattern into a usable regular expression. It must be
// called once before the rule is used by a matcher.
func (r *Rule) Compile() error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("ruleset: rule %q has invalid pattern: %w", r.ID, err)
	}
	r.compiled = re
	return nil
}

// Compiled returns the rule's compiled regular expression, or nil if
// Compile has not been called.
func (r *Rule) Compiled() *regexp.Regexp {
	return r.compiled
}
