package progress

import (
	"errors"
	"sync"
	"time"

	"tubevault/internal/model"
	"tubevault/pkg/logger"

	"go.uber.org/zap"
)

// ErrJobInFlight is returned when a job already exists for the identifier
// and has not reached a terminal state
var ErrJobInFlight = errors.New("a download for this video is already in progress")

type entry struct {
	status     model.JobStatus
	percent    float64
	errDetail  string
	finishedAt time.Time // zero until terminal
}

// Registry tracks download job progress keyed by video identifier.
// Transitions are compare-and-set: a writer must name the status it
// believes is current, so a stale writer can never clobber a newer one.
// Terminal entries are evicted after a TTL.
type Registry struct {
	mu       sync.RWMutex
	jobs     map[string]*entry
	ttl      time.Duration
	interval time.Duration
	quitChan chan struct{}
}

// NewRegistry creates a registry that retains terminal entries for ttl
func NewRegistry(ttl time.Duration) *Registry {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &Registry{
		jobs:     make(map[string]*entry),
		ttl:      ttl,
		interval: interval,
		quitChan: make(chan struct{}),
	}
}

// Start starts the eviction routine
func (r *Registry) Start() {
	go r.evictionRoutine()
}

// Stop stops the eviction routine
func (r *Registry) Stop() {
	close(r.quitChan)
}

// Begin registers a new waiting job. It fails with ErrJobInFlight while a
// non-terminal entry exists for the same identifier; a terminal entry is
// replaced so a video can be re-downloaded.
func (r *Registry) Begin(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.jobs[id]; ok && !e.status.IsTerminal() {
		return ErrJobInFlight
	}

	r.jobs[id] = &entry{status: model.StatusWaiting, percent: 0}
	return nil
}

// Update advances a job from one status to another with a new percentage.
// It returns false without modifying the entry if the current status is not
// the expected one, the percentage would regress, or the job is unknown.
// from == to reports percentage movement within a phase.
func (r *Registry) Update(id string, from, to model.JobStatus, percent float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || e.status != from {
		return false
	}
	if percent < e.percent || percent > 100 {
		return false
	}

	e.status = to
	e.percent = percent
	if to.IsTerminal() {
		e.finishedAt = time.Now()
	}
	return true
}

// Complete marks a job finished at 100 percent
func (r *Registry) Complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || e.status.IsTerminal() {
		return
	}
	e.status = model.StatusComplete
	e.percent = 100
	e.finishedAt = time.Now()
}

// Fail marks a job failed with a human-readable reason. It applies from any
// non-terminal status so every error path converges here.
func (r *Registry) Fail(id, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || e.status.IsTerminal() {
		return
	}
	e.status = model.StatusError
	e.errDetail = detail
	e.finishedAt = time.Now()
}

// Get returns the current snapshot for an identifier. Unknown identifiers
// report waiting at zero percent so pollers never special-case
// not-yet-registered jobs.
func (r *Registry) Get(id string) model.JobProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.jobs[id]
	if !ok {
		return model.JobProgress{Status: model.StatusWaiting, Percent: 0}
	}
	return model.JobProgress{Status: e.status, Percent: e.percent, Error: e.errDetail}
}

// Len returns the number of tracked jobs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// evictionRoutine periodically removes expired terminal entries
func (r *Registry) evictionRoutine() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quitChan:
			return
		case <-ticker.C:
			r.evictExpired(time.Now())
		}
	}
}

// evictExpired removes terminal entries older than the TTL. Active entries
// are never evicted.
func (r *Registry) evictExpired(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.jobs {
		if e.status.IsTerminal() && now.Sub(e.finishedAt) > r.ttl {
			delete(r.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		logger.LogDebug("Progress entries evicted",
			zap.Int("removed", removed),
			zap.Int("remaining", len(r.jobs)))
	}
}
