package render

import (
	"context"
	"sync"
)

// Scheduler runs chart renders concurrently, one goroutine per slug.
// Scheduling a slug again cancels the render already running for it.
type Scheduler struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	next    uint64
	running map[string]job
	errs    map[string]error

	// painting serializes the paint step of the renders of one slug. Go and
	// Cancel never take it, so they do not wait on a paint in progress.
	painting map[string]*sync.Mutex
}

type job struct {
	id     uint64
	cancel context.CancelFunc
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		running:  make(map[string]job),
		errs:     make(map[string]error),
		painting: make(map[string]*sync.Mutex),
	}
}

// Go starts fn for slug. The context passed to fn is cancelled by Cancel, by a
// later Go for the same slug, or when ctx ends.
func (s *Scheduler) Go(ctx context.Context, slug string, fn func(ctx context.Context) error) {
	jobCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.running[slug]; ok {
		prev.cancel()
	}
	s.next++
	id := s.next
	jobCtx = context.WithValue(jobCtx, ownerKey{}, s.owner(slug, id))
	s.running[slug] = job{id: id, cancel: cancel}
	delete(s.errs, slug)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		err := fn(jobCtx)

		s.mu.Lock()
		defer s.mu.Unlock()
		cur, ok := s.running[slug]
		if !ok || cur.id != id {
			// superseded or torn down
			return
		}
		delete(s.running, slug)
		if err != nil {
			s.errs[slug] = err
		}
	}()
}

type ownerKey struct{}

// owner runs fn while job id is still the one registered for slug. Renders
// of one slug paint one at a time, and the ownership check is made once the
// slug's paint lock is held, so a job superseded before its turn never
// paints. A job superseded while painting sees its context cancelled.
func (s *Scheduler) owner(slug string, id uint64) func(func()) bool {
	return func(fn func()) bool {
		s.mu.Lock()
		pm, ok := s.painting[slug]
		if !ok {
			pm = new(sync.Mutex)
			s.painting[slug] = pm
		}
		s.mu.Unlock()

		pm.Lock()
		defer pm.Unlock()

		s.mu.Lock()
		cur, ok := s.running[slug]
		s.mu.Unlock()
		if !ok || cur.id != id {
			return false
		}
		fn()
		return true
	}
}

// Exclusive runs fn if the render owning ctx still owns its slug and reports
// whether it did. Under a Scheduler, fn holds the slug's paint lock and must
// not start another Exclusive for the same slug.
func Exclusive(ctx context.Context, fn func()) bool {
	if ctx.Err() != nil {
		return false
	}
	if own, ok := ctx.Value(ownerKey{}).(func(func()) bool); ok {
		return own(fn)
	}
	fn()
	return true
}

// Cancel stops the render running for slug and forgets its outcome. It
// reports whether a render was running.
func (s *Scheduler) Cancel(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.running[slug]
	if ok {
		j.cancel()
		delete(s.running, slug)
	}
	delete(s.errs, slug)
	return ok
}

// Running reports whether a render is in flight for slug.
func (s *Scheduler) Running(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[slug]
	return ok
}

// Wait blocks until every started render has returned and reports the
// failures by slug.
func (s *Scheduler) Wait() map[string]error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]error, len(s.errs))
	for slug, err := range s.errs {
		out[slug] = err
	}
	return out
}
