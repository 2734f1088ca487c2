package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bobmcallan/rulecheck/internal/common"
	"github.com/bobmcallan/rulecheck/internal/model"
)

// WorkerSet is a fixed pool of logical workers draining a JobQueue. Each
// worker takes a job, arms its deadline timer, invokes the matcher, races
// completion against the timer, re-projects offsets, and delivers the
// outcome to the job's aggregator.
type WorkerSet struct {
	queue   *JobQueue
	logger  *common.Logger
	timeout time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerSet creates a WorkerSet draining queue with timeout as the
// per-job deadline. Call Start to launch its worker goroutines.
func NewWorkerSet(queue *JobQueue, timeout time.Duration, logger *common.Logger) *WorkerSet {
	return &WorkerSet{queue: queue, logger: logger, timeout: timeout}
}

// safeGo launches a goroutine with panic recovery and logging.
func (w *WorkerSet) safeGo(name string, fn func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in worker goroutine")
			}
		}()
		fn()
	}()
}

// Start launches n worker loops.
func (w *WorkerSet) Start(n int) {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("worker-%d", i)
		w.safeGo(name, func() { w.run(ctx) })
	}
}

// Stop cancels all worker loops, unblocks queue takers, and waits for
// in-flight loop iterations to return (not for in-flight matcher calls,
// which are assumed non-cancellable per the pool's contract).
func (w *WorkerSet) Stop() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.queue.Shutdown()
	w.wg.Wait()
}

func (w *WorkerSet) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok := w.queue.Take()
		if !ok {
			return
		}

		w.execute(job)
	}
}

// execute invokes job's matcher, races completion against the per-job
// deadline, re-projects any returned offsets, and hands the outcome to the
// job's registered aggregator.
func (w *WorkerSet) execute(job *Job) {
	resultCh := make(chan jobOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- jobOutcome{job: job, err: fmt.Errorf("%v", r)}
			}
		}()
		matches, err := job.Matcher.Check(context.Background(), job.Request)
		resultCh <- jobOutcome{job: job, matches: matches, err: err}
	}()

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case outcome := <-resultCh:
		if outcome.err != nil {
			deliver(job, nil, &MatcherFailureError{MatcherID: job.Matcher.ID(), Cause: outcome.err})
			return
		}
		deliver(job, reproject(job, outcome.matches), nil)
	case <-timer.C:
		deliver(job, nil, &TimeoutError{Duration: formatDuration(w.timeout)})
	}
}

// deliver hands an outcome to the job's aggregator channel, stashed on the
// job at dispatch time by the pool.
func deliver(job *Job, matches []model.RuleMatch, err error) {
	job.deliver(matches, err)
}

func reproject(job *Job, matches []model.RuleMatch) []model.RuleMatch {
	if len(job.SourceBlocks) != len(job.Request.Blocks) {
		return matches
	}
	blockByID := make(map[string]model.TextBlock, len(job.SourceBlocks))
	for _, b := range job.SourceBlocks {
		blockByID[b.ID] = b
	}

	out := make([]model.RuleMatch, 0, len(matches))
	for _, m := range matches {
		src, ok := blockByID[matchBlockID(job, m)]
		if !ok {
			out = append(out, m)
			continue
		}
		m.FromPos, m.ToPos = ReprojectMatch(src, m.FromPos, m.ToPos)
		out = append(out, m)
	}
	return out
}

// matchBlockID resolves which source block a match belongs to. With a
// single-block job (the blockLevel strategy) this is unambiguous; with a
// multi-block job (documentPerCategory) the block is found by containment of
// the match's document offsets (see reprojectByContainment).
func matchBlockID(job *Job, m model.RuleMatch) string {
	if len(job.Request.Blocks) == 1 {
		return job.Request.Blocks[0].ID
	}
	return reprojectByContainment(job, m)
}

// reprojectByContainment finds the first elided block with From <= FromPos
// and ToPos <= To, so multi-block jobs re-project without requiring the
// matcher to echo block ids. If no block contains the match, the first
// block is used.
func reprojectByContainment(job *Job, m model.RuleMatch) string {
	for _, b := range job.Request.Blocks {
		if m.FromPos >= b.From && m.ToPos <= b.To {
			return b.ID
		}
	}
	if len(job.Request.Blocks) > 0 {
		return job.Request.Blocks[0].ID
	}
	return ""
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 1 {
		return "1 millisecond"
	}
	return fmt.Sprintf("%d milliseconds", ms)
}
