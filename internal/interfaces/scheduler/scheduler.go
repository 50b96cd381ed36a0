package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mrk/internal/domain/timeline"
	"mrk/internal/shared/logger"
)

// ScheduleTime is a time of day at which the scheduler fires.
type ScheduleTime struct {
	Hour   int
	Minute int
}

// String returns the time in HH:MM format.
func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses a time string in HH:MM format.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	return ScheduleTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// JobProvider builds the jobs for one scheduled run.
type JobProvider func(ctx context.Context) ([]Job, error)

// Config holds configuration for the scheduler.
type Config struct {
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	JobTimeout    time.Duration
	QueueSize     int
	RunOnStartup  bool
	Clock         timeline.Clock
	JobProvider   JobProvider
}

// Scheduler submits the provider's jobs to a worker pool at fixed times of
// day, evaluated in the clock's location.
type Scheduler struct {
	workerPool    *WorkerPool
	scheduleTimes []ScheduleTime
	runOnStartup  bool
	jobProvider   JobProvider
	clock         timeline.Clock
	tick          time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun string
}

// New validates cfg and builds a scheduler. Nothing runs until Start.
func New(cfg Config) (*Scheduler, error) {
	if cfg.JobProvider == nil {
		return nil, errors.New("job provider is required")
	}

	scheduleTimes := make([]ScheduleTime, 0, len(cfg.ScheduleTimes))
	for _, raw := range cfg.ScheduleTimes {
		st, err := ParseScheduleTime(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule time %q: %w", raw, err)
		}
		scheduleTimes = append(scheduleTimes, st)
	}
	if len(scheduleTimes) == 0 {
		return nil, errors.New("at least one schedule time is required")
	}
	sort.Slice(scheduleTimes, func(i, j int) bool {
		a, b := scheduleTimes[i], scheduleTimes[j]
		return a.Hour*60+a.Minute < b.Hour*60+b.Minute
	})

	clock := cfg.Clock
	if clock == nil {
		clock = timeline.SystemClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.WithContext(ctx, logger.Default().With().Str("component", "scheduler").Logger())

	return &Scheduler{
		workerPool:    NewWorkerPool(cfg.WorkerCount, cfg.JobDelay, cfg.JobTimeout, cfg.QueueSize),
		scheduleTimes: scheduleTimes,
		runOnStartup:  cfg.RunOnStartup,
		jobProvider:   cfg.JobProvider,
		clock:         clock,
		tick:          time.Minute,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start launches the worker pool and the scheduling loop.
func (s *Scheduler) Start() {
	l := logger.FromContext(s.ctx)
	l.Info().
		Time("next_run", s.NextRun(s.clock.Now())).
		Int("schedule_times", len(s.scheduleTimes)).
		Msg("starting scheduler")

	s.workerPool.Start()

	if s.runOnStartup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJobs()
		}()
	}

	s.wg.Add(1)
	go s.scheduleLoop()
}

func (s *Scheduler) scheduleLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := s.clock.Now()
			if s.shouldRun(now) {
				l := logger.FromContext(s.ctx)
				l.Info().Str("at", now.Format("15:04")).Msg("scheduled run triggered")
				s.runJobs()
			}
		}
	}
}

// shouldRun reports whether now falls on a schedule minute that has not
// fired yet.
func (s *Scheduler) shouldRun(now time.Time) bool {
	key := now.Format("2006-01-02T15:04")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRun == key {
		return false
	}

	for _, st := range s.scheduleTimes {
		if now.Hour() == st.Hour && now.Minute() == st.Minute {
			s.lastRun = key
			return true
		}
	}
	return false
}

// runJobs asks the provider for jobs and queues them. It returns the number
// of jobs accepted by the pool.
func (s *Scheduler) runJobs() int {
	l := logger.FromContext(s.ctx)

	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to build scheduled jobs")
		return 0
	}
	if len(jobs) == 0 {
		l.Info().Msg("no jobs to process")
		return 0
	}

	return s.workerPool.SubmitBatch(jobs)
}

// TriggerNow runs the provider immediately, outside the schedule.
func (s *Scheduler) TriggerNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJobs()
	}()
}

// Shutdown stops the loop, then drains the worker pool within timeout.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	l := logger.FromContext(s.ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		l.Warn().Msg("timeout waiting for scheduler loop to stop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)
	l.Info().Msg("scheduler stopped")
}

// NextRun returns the first schedule time strictly after now, in now's
// location.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	for _, st := range s.scheduleTimes {
		at := time.Date(now.Year(), now.Month(), now.Day(), st.Hour, st.Minute, 0, 0, now.Location())
		if at.After(now) {
			return at
		}
	}

	st := s.scheduleTimes[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), st.Hour, st.Minute, 0, 0, now.Location())
}

// ScheduleTimes returns the configured times in ascending order.
func (s *Scheduler) ScheduleTimes() []ScheduleTime {
	out := make([]ScheduleTime, len(s.scheduleTimes))
	copy(out, s.scheduleTimes)
	return out
}
