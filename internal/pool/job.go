package pool

import "github.com/bobmcallan/rulecheck/internal/model"

// Job is one unit of work dispatched to one matcher by a planning strategy.
// SourceBlocks carries the original (pre-elision) blocks in the same order
// as Request.Blocks, so a worker can re-project returned offsets back into
// document coordinates once the matcher responds.
type Job struct {
	CheckID      string
	Matcher      Matcher
	Request      model.MatcherRequest
	SourceBlocks []model.TextBlock
	CategoryIDs  []string

	// onDeliver is set by the pool when a job is dispatched; it routes the
	// worker's outcome back to the per-check aggregator.
	onDeliver func(matches []model.RuleMatch, err error)
}

// deliver routes a worker's outcome to this job's aggregator.
func (j *Job) deliver(matches []model.RuleMatch, err error) {
	if j.onDeliver != nil {
		j.onDeliver(matches, err)
	}
}

// jobOutcome is what a worker delivers to the per-check aggregator once a
// job finishes, times out, or its matcher fails.
type jobOutcome struct {
	job     *Job
	matches []model.RuleMatch
	err     error
}
