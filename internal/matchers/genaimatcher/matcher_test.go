package genaimatcher

import (
	"context"
	"testing"

	"github.com/bobmcallan/rulecheck/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
	err      error
}

func (g *fakeGenerator) generate(_ context.Context, _ string) (string, error) {
	return g.response, g.err
}

func newTestMatcher(gen generator) *Matcher {
	return &Matcher{id: "genai-0", client: gen}
}

func TestMatcher_ParsesFindingsAndRebasesOffsets(t *testing.T) {
	gen := &fakeGenerator{response: `[{"from":5,"to":15,"message":"passive voice","matchedText":"was written","replacement":["wrote"]}]`}
	m := newTestMatcher(gen)

	req := model.MatcherRequest{Blocks: []model.TextBlock{
		{ID: "b0", Text: "this was written poorly", From: 100, To: 123},
	}}

	matches, err := m.Check(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, 105, matches[0].FromPos)
	require.Equal(t, 115, matches[0].ToPos)
	require.Equal(t, []string{"wrote"}, matches[0].Replacement)
}

func TestMatcher_SkipsEmptyBlocks(t *testing.T) {
	gen := &fakeGenerator{response: `[]`}
	m := newTestMatcher(gen)

	req := model.MatcherRequest{Blocks: []model.TextBlock{{ID: "b0", Text: "   ", From: 0, To: 3}}}
	matches, err := m.Check(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestMatcher_StripsCodeFence(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n[]\n```"}
	m := newTestMatcher(gen)

	req := model.MatcherRequest{Blocks: []model.TextBlock{{ID: "b0", Text: "fine text", From: 0, To: 9}}}
	matches, err := m.Check(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestMatcher_CategoriesIsSingleSyntheticCategory(t *testing.T) {
	m := newTestMatcher(&fakeGenerator{})
	cats := m.Categories()
	require.Len(t, cats, 1)
	require.Equal(t, categoryID, cats[0].ID)
}
