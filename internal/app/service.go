// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	workerpool "github.com/okian/perfscore/internal/adapters/mq/worker"
	"github.com/okian/perfscore/internal/adapters/repository"
	"github.com/okian/perfscore/internal/domain/leaderboard"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/internal/domain/scoring"
	"github.com/okian/perfscore/internal/domain/types"
	"github.com/okian/perfscore/pkg/logger"
	"github.com/okian/perfscore/pkg/metrics"
)

const (
	defaultWindowDays = 30
	defaultQueueSize  = 1024
)

// ErrNotStarted is returned when the service is used before Start.
var ErrNotStarted = errors.New("service not started")

// Query selects the cohort and period to score. Zero values are filled by
// the service: ReferenceDate from its clock and Window from the default
// window length ending at the reference date.
type Query struct {
	EmployeeIDs   []string
	LocationID    string
	Window        model.Window
	ReferenceDate time.Time
}

// Failure reports an employee that could not be scored.
type Failure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
	Err        error  `json:"-"`
}

// Cohort is the ranked outcome of a scoring run.
type Cohort struct {
	Window        model.Window
	ReferenceDate time.Time
	Board         leaderboard.Board
	Failures      []Failure
}

// Service implements the API dependencies for performance scoring.
type Service struct {
	mu sync.RWMutex

	// Core components
	source repository.Source
	engine *scoring.Engine
	pool   *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	windowDays  int
	loc         *time.Location
	now         func() time.Time

	// State
	started       bool
	batches       atomic.Int64
	scored        atomic.Int64
	failed        atomic.Int64
	lastBatchUnix atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the data source used for GET-style queries.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of employees waiting for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDefaultWindowDays sets the window length used when a query has none.
func WithDefaultWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithLocation sets the time zone for calendar-day ageing and month buckets.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the clock that supplies default reference dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		source:      repository.NewMemorySource(repository.Dataset{}),
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		windowDays:  defaultWindowDays,
		loc:         time.UTC,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.engine = scoring.NewEngine(scoring.WithLocation(s.loc))
	s.pool = workerpool.NewPool(s.workerCount, s.source, s.engine,
		workerpool.WithQueueSize(s.queueSize),
		workerpool.WithLogger(s.logger.Named("pool")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "performance service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("windowDays", s.windowDays),
		logger.String("timezone", s.loc.String()),
		logger.Int("employees", s.source.Count(ctx)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping performance service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "performance service stopped")
	return err
}

// Score ranks the cohort described by q using the configured source.
func (s *Service) Score(ctx context.Context, q Query) (Cohort, error) {
	return s.score(ctx, s.source, q)
}

// ScoreDataset ranks a cohort drawn from an ad-hoc dataset.
func (s *Service) ScoreDataset(ctx context.Context, ds repository.Dataset, q Query) (Cohort, error) {
	if err := ds.Validate(); err != nil {
		return Cohort{}, err
	}
	return s.score(ctx, repository.NewMemorySource(ds), q)
}

// Leaderboard returns the top limit entries of the cohort. limit <= 0
// returns every entry.
func (s *Service) Leaderboard(ctx context.Context, q Query, limit int) ([]types.Entry, error) {
	cohort, err := s.Score(ctx, q)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return cohort.Board.Entries(), nil
	}
	return cohort.Board.TopEntries(limit), nil
}

// EmployeeScore scores one employee and returns the record together with
// its rank among the employees of the same location.
func (s *Service) EmployeeScore(ctx context.Context, employeeID string, q Query) (model.EmployeePerformanceScore, types.Entry, error) {
	// Both scoring passes share one reference date.
	q, err := s.Resolve(q)
	if err != nil {
		return model.EmployeePerformanceScore{}, types.Entry{}, err
	}

	single := q
	single.EmployeeIDs = []string{employeeID}
	one, err := s.Score(ctx, single)
	if err != nil {
		return model.EmployeePerformanceScore{}, types.Entry{}, err
	}
	if len(one.Failures) > 0 {
		return model.EmployeePerformanceScore{}, types.Entry{}, one.Failures[0].Err
	}
	if one.Board.Len() == 0 {
		return model.EmployeePerformanceScore{}, types.Entry{}, fmt.Errorf("%w: %s", repository.ErrNotFound, employeeID)
	}
	score := one.Board.All()[0]

	peers := q
	peers.EmployeeIDs = nil
	if peers.LocationID == "" {
		peers.LocationID = score.LocationID
	}
	cohort, err := s.Score(ctx, peers)
	if err != nil {
		return model.EmployeePerformanceScore{}, types.Entry{}, err
	}
	entry := types.Entry{
		EmployeeID: score.EmployeeID,
		Name:       score.Name,
		LocationID: score.LocationID,
		Score:      score.OverallScore,
		Rank:       cohort.Board.Position(employeeID),
	}
	return score, entry, nil
}

// Cancel aborts in-flight scoring of one employee.
func (s *Service) Cancel(employeeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	return s.pool.Cancel(employeeID)
}

// Resolve fills the defaults of q and validates its window.
func (s *Service) Resolve(q Query) (Query, error) {
	if q.ReferenceDate.IsZero() {
		q.ReferenceDate = s.now().In(s.loc)
	}
	if q.Window.Start.IsZero() && q.Window.End.IsZero() {
		end := q.ReferenceDate
		q.Window = model.Window{Start: end.AddDate(0, 0, -s.windowDays), End: end}
	}
	if !q.Window.Valid() {
		return q, fmt.Errorf("%w: end must be after start", repository.ErrInvalidWindow)
	}
	return q, nil
}

func (s *Service) score(ctx context.Context, src repository.Source, q Query) (Cohort, error) {
	s.mu.RLock()
	started := s.started
	pool := s.pool
	s.mu.RUnlock()
	if !started {
		return Cohort{}, ErrNotStarted
	}

	q, err := s.Resolve(q)
	if err != nil {
		return Cohort{}, err
	}

	ids := q.EmployeeIDs
	if len(ids) == 0 {
		employees, err := src.Employees(ctx, q.LocationID)
		if err != nil {
			return Cohort{}, fmt.Errorf("list employees: %w", err)
		}
		ids = make([]string, len(employees))
		for i, e := range employees {
			ids[i] = e.ID
		}
	}

	reqs := make([]model.Request, len(ids))
	for i, id := range ids {
		reqs[i] = model.Request{
			EmployeeID:    id,
			Window:        q.Window,
			LocationID:    q.LocationID,
			ReferenceDate: q.ReferenceDate,
			Zone:          s.loc,
		}
	}

	results, err := pool.ScoreCohortFrom(ctx, src, reqs)
	if err != nil {
		return Cohort{}, err
	}

	scores := make([]model.EmployeePerformanceScore, 0, len(results))
	var failures []Failure
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, Failure{EmployeeID: r.EmployeeID, Error: r.Err.Error(), Err: r.Err})
			continue
		}
		scores = append(scores, r.Score)
	}

	s.batches.Add(1)
	s.scored.Add(int64(len(scores)))
	s.failed.Add(int64(len(failures)))
	s.lastBatchUnix.Store(time.Now().Unix())

	return Cohort{
		Window:        q.Window,
		ReferenceDate: q.ReferenceDate,
		Board:         leaderboard.Rank(scores),
		Failures:      failures,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"defaultWindowDays": s.windowDays,
		"timezone":          s.loc.String(),
		"batches":           s.batches.Load(),
		"employeesScored":   s.scored.Load(),
		"employeesFailed":   s.failed.Load(),
		"lastBatchUnix":     s.lastBatchUnix.Load(),
		"totalEmployees":    s.source.Count(ctx),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	goroutines := runtime.NumGoroutine()
	metrics.UpdateSystemMemoryUsage(ms.Alloc)
	metrics.UpdateSystemGoroutineCount(goroutines)
	stats["goroutines"] = goroutines

	return stats
}
