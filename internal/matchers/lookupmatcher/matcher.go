package lookupmatcher

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bobmcallan/rulecheck/internal/model"
)

const categoryID = "name-lookup"

var candidateNamePattern = regexp.MustCompile(`\b[A-Z][a-zA-Z]{2,}(?:\s[A-Z][a-zA-Z]{2,})?\b`)

// resolver is the subset of Client that Validator depends on, narrowed so
// tests can substitute a fake without a live service.
type resolver interface {
	Resolve(ctx context.Context, name string) (resolution, error)
}

// cacher is the subset of Cache that Validator depends on.
type cacher interface {
	Get(ctx context.Context, name string) (resolution, bool)
	Put(ctx context.Context, name string, r resolution) error
}

// Validator implements the pool.Validator capability: it scans text for
// candidate proper-noun spans and flags ones the external lookup service
// does not recognise.
type Validator struct {
	client resolver
	cache  cacher
}

// NewValidator creates a Validator resolving names via client, consulting
// cache first when cache is non-nil.
func NewValidator(client resolver, cache cacher) *Validator {
	return &Validator{client: client, cache: cache}
}

func (v *Validator) Category() model.Category {
	return model.Category{ID: categoryID, Name: "Name Lookup"}
}

func (v *Validator) Rules() []model.Rule {
	return []model.Rule{{
		ID:      "unrecognised-name",
		Message: "name was not recognised by the name-lookup service",
		Pattern: candidateNamePattern.String(),
	}}
}

// Check scans each block for candidate name spans and resolves every
// distinct candidate at most once per call, regardless of how many times
// it occurs.
func (v *Validator) Check(ctx context.Context, req model.MatcherRequest) ([]model.RuleMatch, error) {
	resolved := make(map[string]resolution)

	var matches []model.RuleMatch
	for _, b := range req.Blocks {
		for _, loc := range candidateNamePattern.FindAllStringIndex(b.Text, -1) {
			name := b.Text[loc[0]:loc[1]]

			r, ok := resolved[name]
			if !ok {
				var err error
				r, err = v.resolve(ctx, name)
				if err != nil {
					return nil, fmt.Errorf("lookupmatcher: %w", err)
				}
				resolved[name] = r
			}

			if r.Known {
				continue
			}

			matches = append(matches, model.RuleMatch{
				Rule:        "unrecognised-name",
				FromPos:     b.From + loc[0],
				ToPos:       b.From + loc[1] - 1,
				MatchedText: name,
				Message:     fmt.Sprintf("%q was not recognised by the name-lookup service", name),
				MatcherType: "lookup",
			})
		}
	}
	return matches, nil
}

func (v *Validator) resolve(ctx context.Context, name string) (resolution, error) {
	if v.cache != nil {
		if cached, ok := v.cache.Get(ctx, name); ok {
			return cached, nil
		}
	}

	r, err := v.client.Resolve(ctx, name)
	if err != nil {
		return resolution{}, err
	}

	if v.cache != nil {
		_ = v.cache.Put(ctx, name, r)
	}
	return r, nil
}
