package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"creator-ledger/internal/infra/metrics"
)

// Job is a unit of periodic work. Run should return once the pass is done.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on six-field cron specs (seconds first). Overlapping
// runs of the same job are skipped.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	jobs    map[string]Job
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zerolog.Logger
}

// NewScheduler builds a scheduler. timeout bounds a single run; zero means 5 minutes.
func NewScheduler(timeout time.Duration, logger *zerolog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	l := logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: &l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:    make(map[string]Job),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		log:     &l,
	}
}

// Add registers job under spec. An empty spec disables the job.
func (s *Scheduler) Add(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[job.Name()]; dup {
		return fmt.Errorf("scheduler: job %q already registered", job.Name())
	}
	s.jobs[job.Name()] = job
	if spec == "" {
		s.log.Info().Str("job", job.Name()).Msg("job has no schedule; manual runs only")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.run(s.ctx, job) }); err != nil {
		delete(s.jobs, job.Name())
		return fmt.Errorf("scheduler: job %q: %w", job.Name(), err)
	}
	s.log.Info().Str("job", job.Name()).Str("spec", spec).Msg("job scheduled")
	return nil
}

// Jobs returns registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RunNow runs a registered job once in the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) run(parent context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	l := s.log.With().Str("job", job.Name()).Dur("took", time.Since(start)).Logger()
	if err != nil {
		metrics.IncJobRun(job.Name(), "error")
		l.Error().Err(err).Msg("job run failed")
		return err
	}
	metrics.IncJobRun(job.Name(), "ok")
	l.Debug().Msg("job run done")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop cancels in-flight runs and waits for them, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log *zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
