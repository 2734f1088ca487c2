package pool

import (
	"testing"

	"github.com/bobmcallan/rulecheck/internal/model"
	"github.com/stretchr/testify/require"
)

func TestElideSkipRanges_WorkedExample(t *testing.T) {
	b := model.TextBlock{
		ID: "b0", Text: "ABCDEF", From: 0, To: 6,
		SkipRanges: []model.TextRange{{From: 0, To: 0}, {From: 2, To: 2}, {From: 4, To: 4}},
	}

	elided := ElideSkipRanges(b)
	require.Equal(t, "BDF", elided.Text)
	require.Equal(t, 0, elided.From)
	require.Equal(t, 3, elided.To)
	require.Empty(t, elided.SkipRanges)
}

func TestElideSkipRanges_NoRanges(t *testing.T) {
	b := model.TextBlock{ID: "b0", Text: "hello", From: 10, To: 15}
	elided := ElideSkipRanges(b)
	require.Equal(t, b.Text, elided.Text)
	require.Equal(t, b.From, elided.From)
	require.Equal(t, b.To, elided.To)
}

func TestReprojectMatch_WorkedExample(t *testing.T) {
	b := model.TextBlock{
		ID: "b0", Text: "ABCDEF", From: 0, To: 6,
		SkipRanges: []model.TextRange{{From: 0, To: 0}, {From: 2, To: 2}, {From: 4, To: 4}},
	}

	from, to := ReprojectMatch(b, 0, 0)
	require.Equal(t, 1, from)
	require.Equal(t, 1, to)

	from, to = ReprojectMatch(b, 2, 2)
	require.Equal(t, 5, from)
	require.Equal(t, 5, to)
}

func TestReprojectMatch_RebasesNonZeroBlockFrom(t *testing.T) {
	// Same shape as the worked example, but the block starts at document
	// offset 100 instead of 0: a matcher reports offsets already rebased by
	// b.From, and reprojection must not add b.From a second time.
	b := model.TextBlock{
		ID: "b0", Text: "ABCDEF", From: 100, To: 106,
		SkipRanges: []model.TextRange{{From: 100, To: 100}, {From: 102, To: 102}, {From: 104, To: 104}},
	}

	from, to := ReprojectMatch(b, 100, 100)
	require.Equal(t, 101, from)
	require.Equal(t, 101, to)

	from, to = ReprojectMatch(b, 102, 102)
	require.Equal(t, 105, from)
	require.Equal(t, 105, to)
}

// P4: range round-trip — every re-projected position stays within the
// original block's [From, To] bounds.
func TestReprojectMatch_StaysWithinBlockBounds(t *testing.T) {
	b := model.TextBlock{
		ID: "b0", Text: "The quick brown fox", From: 100, To: 119,
		SkipRanges: []model.TextRange{{From: 104, To: 104}, {From: 110, To: 111}},
	}
	elided := ElideSkipRanges(b)

	for local := 0; local < len(elided.Text); local++ {
		pos := b.From + local
		from, to := ReprojectMatch(b, pos, pos)
		require.GreaterOrEqual(t, from, b.From)
		require.LessOrEqual(t, to, b.To)
	}
}

func TestReprojectMatch_OffsetWithNonZeroFrom(t *testing.T) {
	b := model.TextBlock{
		ID: "b0", Text: "XYZ", From: 10, To: 13,
		SkipRanges: []model.TextRange{{From: 11, To: 11}},
	}
	elided := ElideSkipRanges(b)
	require.Equal(t, "XZ", elided.Text)

	// local index 1 ('Z' in the elided text) rebased by b.From = 10 is 11.
	from, to := ReprojectMatch(b, 11, 11)
	require.Equal(t, 12, from)
	require.Equal(t, 12, to)
}
