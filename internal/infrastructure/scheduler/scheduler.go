package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/estateflow/backend/internal/infrastructure/config"
	"github.com/estateflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// JobStatus represents the status of a job run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the work performed by a scheduled job
type JobFunc func(ctx context.Context) error

// JobRun records one execution of a job
type JobRun struct {
	ID          uuid.UUID
	Job         string
	Status      JobStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Duration returns how long the run took, or zero while it is running
func (r JobRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

type registeredJob struct {
	name    string
	spec    string
	fn      JobFunc
	entryID cron.EntryID
}

// RunClaimer grants one process the right to run a given cron tick
type RunClaimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RunObserver is told about every finished run
type RunObserver interface {
	ObserveRun(ctx context.Context, job, status string, d time.Duration)
}

// claimTTL outlives the clock skew between worker replicas
const claimTTL = time.Hour

// Scheduler runs named jobs on cron schedules.
// Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron       *cron.Cron
	logger     *zap.Logger
	jobTimeout time.Duration
	now        func() time.Time
	claims     RunClaimer
	tracer     trace.Tracer
	observer   RunObserver

	mu        sync.Mutex
	jobs      map[string]*registeredJob
	lastRuns  map[string]JobRun
	running   map[string]bool
	isRunning bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock overrides the time source used to stamp job runs
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithRunClaimer makes scheduled ticks run on only one of the processes
// sharing claimer. RunNow is not affected.
func WithRunClaimer(claimer RunClaimer) Option {
	return func(s *Scheduler) {
		s.claims = claimer
	}
}

// WithTracer opens a span around every run
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = tracer
	}
}

// WithRunObserver reports finished runs to observer
func WithRunObserver(observer RunObserver) Option {
	return func(s *Scheduler) {
		s.observer = observer
	}
}

// New creates a scheduler evaluating cron specs in loc
func New(cfg config.SchedulerConfig, loc *time.Location, zapLogger *zap.Logger, opts ...Option) *Scheduler {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		logger:     zapLogger.Named("scheduler"),
		jobTimeout: cfg.JobTimeout,
		now:        time.Now,
		jobs:       make(map[string]*registeredJob),
		lastRuns:   make(map[string]JobRun),
		running:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Register adds a job under a standard five-field cron spec or a descriptor
// such as "@every 1h"
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%w: job name and function are required", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, name)
	}

	job := &registeredJob{name: name, spec: spec, fn: fn}
	entryID, err := s.cron.AddFunc(spec, func() {
		s.fire(job)
	})
	if err != nil {
		return fmt.Errorf("%w: job %s: %v", ErrInvalidConfig, name, err)
	}
	job.entryID = entryID
	s.jobs[name] = job

	s.logger.Info("Job registered", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Start starts firing registered jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.jobTimeout),
	)
}

// Stop stops firing jobs and waits for in-flight runs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow executes a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobRun, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobRun{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, job)
}

// NextRun returns the next scheduled time of a job, zero if not started
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.cron.Entry(job.entryID).Next, nil
}

// LastRun returns the most recent run of a job
func (s *Scheduler) LastRun(name string) (JobRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.lastRuns[name]
	return run, ok
}

// Jobs returns the registered job names
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// fire runs a scheduled tick once the tick has been claimed
func (s *Scheduler) fire(job *registeredJob) {
	ctx := context.Background()
	if s.claims != nil {
		key := job.name + ":" + s.now().UTC().Truncate(time.Minute).Format(time.RFC3339)
		ok, err := s.claims.Claim(ctx, key, claimTTL)
		switch {
		case err != nil:
			s.logger.Error("Run claim failed, running anyway", zap.String("job", job.name), zap.Error(err))
		case !ok:
			s.logger.Info("Tick claimed by another worker, skipping", zap.String("job", job.name), zap.String("claim", key))
			return
		}
	}
	_, _ = s.execute(ctx, job)
}

func (s *Scheduler) execute(ctx context.Context, job *registeredJob) (run JobRun, err error) {
	s.mu.Lock()
	if s.running[job.name] {
		s.mu.Unlock()
		s.logger.Warn("Job already running, skipping", zap.String("job", job.name))
		return s.lastRunOf(job.name), nil
	}
	s.running[job.name] = true
	run = JobRun{
		ID:        uuid.New(),
		Job:       job.name,
		Status:    JobStatusRunning,
		StartedAt: s.now(),
	}
	s.lastRuns[job.name] = run
	s.mu.Unlock()

	jobLogger := s.logger.With(zap.String("job", job.name), zap.String("run_id", run.ID.String()))
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "job "+job.name, trace.WithAttributes(
			attribute.String("job.name", job.name),
			attribute.String("job.run_id", run.ID.String()),
		))
	}
	ctx = logger.WithContext(ctx, s.logger)
	ctx = logger.WithJob(ctx, job.name, run.ID.String())
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}

		completed := s.now()
		run.CompletedAt = &completed
		if err != nil {
			run.Status = JobStatusFailed
			run.Error = err.Error()
			jobLogger.Error("Job failed", zap.Duration("duration", run.Duration()), zap.Error(err))
		} else {
			run.Status = JobStatusSuccess
			jobLogger.Info("Job completed", zap.Duration("duration", run.Duration()))
		}
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}
		if s.observer != nil {
			s.observer.ObserveRun(ctx, job.name, string(run.Status), run.Duration())
		}

		s.mu.Lock()
		s.lastRuns[job.name] = run
		delete(s.running, job.name)
		s.mu.Unlock()
	}()

	jobLogger.Info("Job started")
	err = job.fn(ctx)
	return run, err
}

func (s *Scheduler) lastRunOf(name string) JobRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRuns[name]
}

// cronLogger routes robfig/cron's internal logging through zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
