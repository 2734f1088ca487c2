package pool

import "github.com/bobmcallan/rulecheck/internal/model"

// ElideSkipRanges returns a copy of b with every character at a document
// offset covered by a skip range removed from b.Text. The returned block's
// From matches b.From, To is recomputed from the elided text length, and
// SkipRanges is cleared — matchers never see skip ranges.
func ElideSkipRanges(b model.TextBlock) model.TextBlock {
	if len(b.SkipRanges) == 0 {
		return model.TextBlock{ID: b.ID, Text: b.Text, From: b.From, To: b.To}
	}

	skip := make([]bool, len(b.Text))
	for _, r := range b.SkipRanges {
		for pos := r.From; pos <= r.To; pos++ {
			idx := pos - b.From
			if idx >= 0 && idx < len(skip) {
				skip[idx] = true
			}
		}
	}

	elided := make([]byte, 0, len(b.Text))
	for i := 0; i < len(b.Text); i++ {
		if !skip[i] {
			elided = append(elided, b.Text[i])
		}
	}

	return model.TextBlock{
		ID:   b.ID,
		Text: string(elided),
		From: b.From,
		To:   b.From + len(elided),
	}
}

// ReprojectPos maps pos — an offset already rebased against b's block start
// (i.e. b.From plus a zero-based index into the elided text) — back into
// b's original document coordinates, by walking b's skip ranges in
// ascending order and shifting the candidate forward past each range that
// lies at or before it.
func ReprojectPos(b model.TextBlock, pos int) int {
	candidate := pos
	for _, r := range b.SkipRanges {
		if r.From <= candidate {
			candidate += r.To - r.From + 1
		}
	}
	return candidate
}

// ReprojectMatch re-projects both ends of a match reported against the
// elided text of b back into b's document coordinates.
func ReprojectMatch(b model.TextBlock, fromPos, toPos int) (int, int) {
	return ReprojectPos(b, fromPos), ReprojectPos(b, toPos)
}
