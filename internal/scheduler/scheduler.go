package scheduler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Result is the outcome of one task run.
type Result int

const (
	// ResultSuccess ends the run; the task waits for its next period.
	ResultSuccess Result = iota
	// ResultRetry asks the scheduler to run the task again after a backoff.
	ResultRetry
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// PeriodicTask is a named unit of periodic work. Name is the uniqueness key.
type PeriodicTask struct {
	Name   string
	Period time.Duration
	// Flex lets a run start anywhere in the last Flex of each period.
	Flex time.Duration
	// MaxRetries bounds re-invocations after ResultRetry within one period.
	MaxRetries int
	Run        func(ctx context.Context) Result
}

// Policy decides what Enqueue does with an existing registration.
type Policy int

const (
	// PolicyReplace stops the existing registration and installs the new one.
	PolicyReplace Policy = iota
	// PolicyKeep leaves an existing registration untouched.
	PolicyKeep
)

// Scheduler runs periodic tasks, at most one registration per name.
type Scheduler struct {
	log zerolog.Logger

	// retryBase is the first retry delay; tests shorten it.
	retryBase time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

type entry struct {
	task PeriodicTask
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New returns a scheduler with no registrations.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		log:       log,
		retryBase: 30 * time.Second,
		entries:   make(map[string]*entry),
	}
}

// Enqueue registers task under task.Name. It reports whether the task
// was installed.
func (s *Scheduler) Enqueue(task PeriodicTask, policy Policy) bool {
	if task.Period <= 0 {
		task.Period = 24 * time.Hour
	}
	if task.Flex < 0 || task.Flex > task.Period {
		task.Flex = 0
	}

	s.mu.Lock()
	old, exists := s.entries[task.Name]
	if exists && policy == PolicyKeep {
		s.mu.Unlock()
		return false
	}

	e := &entry{task: task, stop: make(chan struct{}), done: make(chan struct{})}
	s.entries[task.Name] = e
	s.mu.Unlock()

	if exists {
		old.halt()
		<-old.done
		s.log.Info().Str("task", task.Name).Msg("replaced periodic task")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(e)
	}()
	return true
}

// Cancel removes the registration for name, waiting for any in-flight run.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	e, ok := s.entries[name]
	delete(s.entries, name)
	s.mu.Unlock()

	if ok {
		e.halt()
		<-e.done
	}
}

// Registered returns the names of the current registrations.
func (s *Scheduler) Registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Stop halts every registration and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range entries {
		e.halt()
	}
	s.wg.Wait()
}

func (e *entry) halt() {
	e.once.Do(func() { close(e.stop) })
}

func (s *Scheduler) loop(e *entry) {
	defer close(e.done)

	for {
		timer := time.NewTimer(nextDelay(e.task.Period, e.task.Flex))
		select {
		case <-e.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runWithRetry(e)
	}
}

// nextDelay picks a start inside the flex window at the end of the period.
func nextDelay(period, flex time.Duration) time.Duration {
	if flex <= 0 {
		return period
	}
	return period - flex + rand.N(flex+1)
}

// runWithRetry runs the task to completion. A running task is never
// interrupted; stop only prevents further retries.
func (s *Scheduler) runWithRetry(e *entry) {
	log := s.log.With().Str("task", e.task.Name).Logger()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryBase
	b.MaxElapsedTime = 0
	b.Reset()

	ctx := context.WithoutCancel(context.Background())
	for attempt := 1; ; attempt++ {
		result := e.task.Run(ctx)
		log.Debug().Int("attempt", attempt).Stringer("result", result).Msg("periodic task finished")
		if result == ResultSuccess {
			return
		}

		// A negative MaxRetries retries until the registration stops.
		if e.task.MaxRetries >= 0 && attempt > e.task.MaxRetries {
			log.Warn().Int("attempts", attempt).Msg("periodic task exhausted retries")
			return
		}
		wait := b.NextBackOff()

		timer := time.NewTimer(wait)
		select {
		case <-e.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunNow runs task once outside any registration, with the same retry
// behavior, and returns the final result.
func (s *Scheduler) RunNow(task PeriodicTask) Result {
	e := &entry{task: task, stop: make(chan struct{}), done: make(chan struct{})}
	var final Result
	run := e.task.Run
	e.task.Run = func(ctx context.Context) Result {
		final = run(ctx)
		return final
	}
	s.runWithRetry(e)
	return final
}
