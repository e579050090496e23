package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs one-shot delayed callbacks, used to hold winner
// announcements back for the reveal window. Timers are tracked so Shutdown
// can stop everything still pending; a callback whose delivery finds no
// subscribers simply does nothing.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[uint64]*time.Timer
	nextID  uint64
	stopped bool
	logger  *zap.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[uint64]*time.Timer),
		logger: logger,
	}
}

// Schedule runs fn once after d. After Shutdown it is a no-op.
func (s *Scheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Debug("scheduler stopped, dropping task")
		return
	}
	id := s.nextID
	s.nextID++
	s.timers[id] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}
		fn()
	})
}

// Shutdown stops all pending timers and rejects new work.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
