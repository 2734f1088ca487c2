package regexmatcher

import (
	"context"
	"testing"

	"github.com/bobmcallan/rulecheck/internal/model"
	"github.com/bobmcallan/rulecheck/internal/ruleset"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *ruleset.Registry {
	t.Helper()
	reg := ruleset.NewRegistry()
	reg.AddCategory(model.Category{ID: "spelling", Name: "Spelling"})
	require.NoError(t, reg.AddRule(&ruleset.Rule{
		ID:          "double-the",
		CategoryID:  "spelling",
		Pattern:     `\bthe the\b`,
		Message:     "repeated word",
		Replacement: "the",
	}))
	return reg
}

func TestMatcher_FindsRuleMatches(t *testing.T) {
	m := New("regex-0", newTestRegistry(t), nil)

	req := model.MatcherRequest{Blocks: []model.TextBlock{
		{ID: "b0", Text: "this is the the example", From: 0, To: 23},
	}}

	matches, err := m.Check(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "double-the", matches[0].Rule)
	require.Equal(t, []string{"the"}, matches[0].Replacement)
}

func TestMatcher_CategoriesReflectsRegistry(t *testing.T) {
	m := New("regex-0", newTestRegistry(t), nil)
	cats := m.Categories()
	require.Len(t, cats, 1)
	require.Equal(t, "spelling", cats[0].ID)
}

func TestMatcher_NoMatchesOnCleanText(t *testing.T) {
	m := New("regex-0", newTestRegistry(t), nil)
	req := model.MatcherRequest{Blocks: []model.TextBlock{
		{ID: "b0", Text: "nothing wrong here", From: 0, To: 18},
	}}

	matches, err := m.Check(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, matches)
}
