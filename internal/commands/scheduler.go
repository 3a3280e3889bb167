package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

const everyPrefix = "@every "

var (
	// ErrScheduleExpression is returned for expressions other than "@every <duration>".
	ErrScheduleExpression = errors.New("commands: unsupported schedule expression")
	// ErrScheduleHandler is returned when a registered handler is not a func() error.
	ErrScheduleHandler = errors.New("commands: scheduled handler must be func() error")
	// ErrSchedulerStarted is returned when registering after Start.
	ErrSchedulerStarted = errors.New("commands: scheduler already started")
)

type intervalJob struct {
	expression string
	every      time.Duration
	run        func() error
}

// IntervalScheduler runs jobs registered with "@every <duration>"
// expressions. Register matches the go-command cron registrar signature.
type IntervalScheduler struct {
	logger interfaces.Logger

	mu      sync.Mutex
	jobs    []intervalJob
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewIntervalScheduler creates an idle scheduler.
func NewIntervalScheduler(logger interfaces.Logger) *IntervalScheduler {
	return &IntervalScheduler{logger: EnsureLogger(logger)}
}

// ParseEvery returns the interval of an "@every <duration>" expression.
func ParseEvery(expression string) (time.Duration, error) {
	expr := strings.TrimSpace(expression)
	if !strings.HasPrefix(expr, everyPrefix) {
		return 0, fmt.Errorf("%w: %q", ErrScheduleExpression, expression)
	}
	every, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(expr, everyPrefix)))
	if err != nil || every <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrScheduleExpression, expression)
	}
	return every, nil
}

// Register stores handler under cfg.Expression.
func (s *IntervalScheduler) Register(cfg command.HandlerConfig, handler any) error {
	every, err := ParseEvery(cfg.Expression)
	if err != nil {
		return err
	}
	fn, ok := handler.(func() error)
	if !ok {
		return ErrScheduleHandler
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrSchedulerStarted
	}
	s.jobs = append(s.jobs, intervalJob{expression: cfg.Expression, every: every, run: fn})
	s.logger.Debug("commands.scheduler.registered", "expression", cfg.Expression)
	return nil
}

// Len reports the number of registered jobs.
func (s *IntervalScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Start runs every job on its interval until ctx is done or Stop is called.
func (s *IntervalScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(EnsureContext(ctx))
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Stop cancels the running jobs and waits for them to return.
func (s *IntervalScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *IntervalScheduler) loop(ctx context.Context, job intervalJob) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.run(); err != nil {
				s.logger.Error("commands.scheduler.job_failed", "expression", job.expression, "error", err)
			}
		}
	}
}
