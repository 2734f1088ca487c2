package pool

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/rulecheck/internal/common"
	"github.com/bobmcallan/rulecheck/internal/model"
)

// Options configures a MatcherPool at construction time.
type Options struct {
	MaxCurrentJobs int
	MaxQueuedJobs  int
	Strategy       Strategy
	CheckTimeout   time.Duration
	Logger         *common.Logger
}

// MatcherPool is the public surface: it registers/unregisters matchers,
// accepts check requests, and orchestrates planning, queueing, execution,
// and aggregation.
type MatcherPool struct {
	mu       sync.RWMutex
	matchers []Matcher
	nextID   int

	strategy Strategy
	queue    *JobQueue
	workers  *WorkerSet
	timeout  time.Duration
	logger   *common.Logger
}

// New constructs a MatcherPool and starts its worker set. MaxCurrentJobs and
// MaxQueuedJobs must be > 0, Strategy must be non-nil, and CheckTimeout must
// be > 0.
func New(opts Options) (*MatcherPool, error) {
	if opts.MaxCurrentJobs <= 0 {
		return nil, fmt.Errorf("pool: maxCurrentJobs must be > 0")
	}
	if opts.MaxQueuedJobs <= 0 {
		return nil, fmt.Errorf("pool: maxQueuedJobs must be > 0")
	}
	if opts.Strategy == nil {
		return nil, fmt.Errorf("pool: strategy must be set")
	}
	if opts.CheckTimeout <= 0 {
		return nil, fmt.Errorf("pool: checkTimeoutDuration must be > 0")
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NewDefaultLogger()
	}

	queue := NewJobQueue(opts.MaxQueuedJobs)
	workers := NewWorkerSet(queue, opts.CheckTimeout, logger)
	workers.Start(opts.MaxCurrentJobs)

	return &MatcherPool{
		strategy: opts.Strategy,
		queue:    queue,
		workers:  workers,
		timeout:  opts.CheckTimeout,
		logger:   logger,
	}, nil
}

// Close stops the worker set. In-flight matcher calls are not cancelled.
func (p *MatcherPool) Close() {
	p.workers.Stop()
}

// AddMatcher registers m under the id its own ID() reports. The pool does not
// assign ids: a matcher whose ID() is empty is registered with an empty id.
// Re-registering the same instance is idempotent by identity.
func (p *MatcherPool) AddMatcher(m Matcher) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.matchers {
		if existing == m {
			return
		}
	}
	p.nextID++
	p.matchers = append(p.matchers, m)
}

// RemoveMatcherByID removes the matcher with the given id from the
// registry. In-flight jobs for that matcher are not cancelled.
func (p *MatcherPool) RemoveMatcherByID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.matchers[:0]
	for _, m := range p.matchers {
		if m.ID() != id {
			kept = append(kept, m)
		}
	}
	p.matchers = kept
}

// RemoveAllMatchers clears the registry. In-flight jobs keep their matcher
// reference and still deliver results.
func (p *MatcherPool) RemoveAllMatchers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matchers = nil
}

// GetCurrentCategories returns the union of categories over every
// currently registered matcher.
func (p *MatcherPool) GetCurrentCategories() []model.Category {
	p.mu.RLock()
	snapshot := append([]Matcher(nil), p.matchers...)
	p.mu.RUnlock()

	seen := make(map[string]model.Category)
	for _, m := range snapshot {
		for _, c := range m.Categories() {
			seen[c.ID] = c
		}
	}
	return sortedCategories(seen)
}

// Matchers returns a snapshot of the currently registered matchers.
func (p *MatcherPool) Matchers() []Matcher {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Matcher(nil), p.matchers...)
}

// Check runs the full check() algorithm of §4.1: resolve categories, select
// matchers, plan jobs, enqueue, await, and aggregate.
func (p *MatcherPool) Check(check model.Check) (model.CheckResult, error) {
	if err := requireUniqueBlockIDs(check.Blocks); err != nil {
		return model.CheckResult{}, err
	}

	p.mu.RLock()
	snapshot := append([]Matcher(nil), p.matchers...)
	p.mu.RUnlock()

	resolved, err := p.resolveCategories(check.CategoryIDs, snapshot)
	if err != nil {
		return model.CheckResult{}, err
	}

	selected := selectMatchers(snapshot, resolved)
	jobs := p.strategy(check, selected)

	return p.dispatch(check.SetID, jobs)
}

// requireUniqueBlockIDs enforces §3's "block ids must be unique within one
// check" invariant. A duplicate id would make workerset's blockByID lookup
// silently resolve matches against the wrong block's skip ranges.
func requireUniqueBlockIDs(blocks []model.TextBlock) error {
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if seen[b.ID] {
			return &BadRequestError{Reason: fmt.Sprintf("duplicate block id %q", b.ID)}
		}
		seen[b.ID] = true
	}
	return nil
}

// resolveCategories implements step 1 of check(): if categoryIDs is set and
// non-empty, every id must exist among current matchers' categories;
// otherwise every currently registered category is used. Missing and empty
// are treated identically.
func (p *MatcherPool) resolveCategories(categoryIDs []string, matchers []Matcher) (map[string]bool, error) {
	available := make(map[string]bool)
	for _, m := range matchers {
		for _, c := range m.Categories() {
			available[c.ID] = true
		}
	}

	if len(categoryIDs) == 0 {
		return available, nil
	}

	var unknown []string
	resolved := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		if !available[id] {
			unknown = append(unknown, id)
			continue
		}
		resolved[id] = true
	}
	if len(unknown) > 0 {
		return nil, &UnknownCategoryError{CategoryIDs: unknown}
	}
	return resolved, nil
}

func selectMatchers(matchers []Matcher, resolved map[string]bool) []Matcher {
	selected := make([]Matcher, 0, len(matchers))
	for _, m := range matchers {
		for _, c := range m.Categories() {
			if resolved[c.ID] {
				selected = append(selected, m)
				break
			}
		}
	}
	return selected
}

// dispatch enqueues jobs, awaits them with first-failure-wins semantics,
// and aggregates successful outcomes. Matches reported at the identical
// (FromPos, ToPos) span are collapsed to one, keeping the match from the
// later-dispatched job (see DESIGN.md's resolution of the overlapping-match
// precedence question); matches whose spans only partly overlap are all kept.
func (p *MatcherPool) dispatch(checkID string, jobs []*Job) (model.CheckResult, error) {
	if len(jobs) == 0 {
		return model.CheckResult{}, nil
	}

	dispatched := make(map[string]bool)
	for _, job := range jobs {
		for _, id := range job.CategoryIDs {
			dispatched[id] = true
		}
	}

	type indexedOutcome struct {
		jobOutcome
		dispatchIndex int
	}

	results := make(chan indexedOutcome, len(jobs))
	for i, job := range jobs {
		dispatchIndex := i
		job.onDeliver = func(matches []model.RuleMatch, err error) {
			results <- indexedOutcome{jobOutcome: jobOutcome{job: job, matches: matches, err: err}, dispatchIndex: dispatchIndex}
		}
		if !p.queue.Offer(job) {
			p.logger.Warn().Str("check_id", checkID).Int("job_index", i).Msg("job queue full")
			return model.CheckResult{}, &QueueFullError{CheckID: checkID}
		}
	}

	var firstErr error
	byPosition := make(map[string]indexedMatch)
	for received := 0; received < len(jobs); received++ {
		outcome := <-results
		if outcome.err != nil {
			if firstErr == nil {
				firstErr = outcome.err
				p.logger.Warn().Str("check_id", checkID).Err(outcome.err).Msg("job failed")
			}
			continue
		}
		for _, m := range outcome.matches {
			key := fmt.Sprintf("%d:%d", m.FromPos, m.ToPos)
			existing, ok := byPosition[key]
			if !ok || outcome.dispatchIndex >= existing.dispatchIndex {
				byPosition[key] = indexedMatch{match: m, dispatchIndex: outcome.dispatchIndex}
			}
		}
	}

	if firstErr != nil {
		return model.CheckResult{}, firstErr
	}

	return model.CheckResult{
		CategoryIDs: sortedKeys(dispatched),
		Matches:     flattenLastWins(byPosition),
	}, nil
}

type indexedMatch struct {
	match         model.RuleMatch
	dispatchIndex int
}

// flattenLastWins returns the one match kept per identical (fromPos, toPos)
// key — the match from the job whose dispatch index is largest. The order
// of the returned matches is not defined.
func flattenLastWins(byPosition map[string]indexedMatch) []model.RuleMatch {
	out := make([]model.RuleMatch, 0, len(byPosition))
	for _, im := range byPosition {
		out = append(out, im.match)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCategories(m map[string]model.Category) []model.Category {
	cats := make([]model.Category, 0, len(m))
	for _, c := range m {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return cats
}
