package pool

import "github.com/bobmcallan/rulecheck/internal/model"

// Strategy expands a Check into a flat list of Jobs against the set of
// matchers already selected for that check. Strategies are pure functions
// of (check, selectedMatchers) so they can be exercised in isolation.
type Strategy func(check model.Check, selected []Matcher) []*Job

// DocumentPerCategoryStrategy is the default planning strategy: for each
// selected matcher, produce exactly one Job whose request covers every
// block of the check (after skip-range elision).
func DocumentPerCategoryStrategy(check model.Check, selected []Matcher) []*Job {
	blocks := elideBlocks(check.Blocks)

	jobs := make([]*Job, 0, len(selected))
	for _, m := range selected {
		jobs = append(jobs, &Job{
			CheckID:     check.SetID,
			Matcher:     m,
			Request:     model.MatcherRequest{Blocks: blocks},
			SourceBlocks: check.Blocks,
			CategoryIDs: categoryIDs(m.Categories()),
		})
	}
	return jobs
}

// BlockLevelStrategy produces one Job per (matcher, block) pair, maximising
// parallelism and queue backpressure granularity.
func BlockLevelStrategy(check model.Check, selected []Matcher) []*Job {
	jobs := make([]*Job, 0, len(selected)*len(check.Blocks))
	for _, m := range selected {
		catIDs := categoryIDs(m.Categories())
		for _, b := range check.Blocks {
			elided := ElideSkipRanges(b)
			jobs = append(jobs, &Job{
				CheckID:      check.SetID,
				Matcher:      m,
				Request:      model.MatcherRequest{Blocks: []model.TextBlock{elided}},
				SourceBlocks: []model.TextBlock{b},
				CategoryIDs:  catIDs,
			})
		}
	}
	return jobs
}

func elideBlocks(blocks []model.TextBlock) []model.TextBlock {
	out := make([]model.TextBlock, len(blocks))
	for i, b := range blocks {
		out[i] = ElideSkipRanges(b)
	}
	return out
}

func categoryIDs(cats []model.Category) []string {
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}
