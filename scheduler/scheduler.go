// Package scheduler runs the service's periodic jobs (quest window
// refresh, leaderboard cache rebuild) on named in-process tickers.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is a scheduled job body.
type TaskFn func()

// Scheduler owns named ticker and one-shot tasks. Panics inside a task
// are logged and the ticker keeps running.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]chan struct{} // per-ticker stop signal
	timers  map[string]*time.Timer
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped sync.Once
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tickers: make(map[string]chan struct{}),
		timers:  make(map[string]*time.Timer),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// AddTicker runs fn every interval under the given name. Registering an
// existing name replaces the previous task.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		close(old)
	}
	stop := make(chan struct{})
	s.tickers[name] = stop

	go s.runTicker(name, interval, fn, stop)
	s.logger.Info("scheduler task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

func (s *Scheduler) runTicker(name string, interval time.Duration, fn TaskFn, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.invoke(name, fn)
		case <-stop:
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) invoke(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name), zap.Any("recover", r))
		}
	}()
	fn()
}

// AddDelay runs fn once after delay. Re-registering a name cancels the
// pending run.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.Stop()
	}
	s.timers[name] = time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			delete(s.timers, name)
			s.mu.Unlock()
		}()
		s.invoke(name, fn)
	})
}

// Remove cancels the named ticker or delayed task, if present.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.tickers[name]; ok {
		close(stop)
		delete(s.tickers, name)
	}
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

// Stop halts every ticker. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
}

// ListTickers reports the names of the registered ticker tasks.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	return names
}
