// Package worker scores employee cohorts on a bounded pool of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/perfscore/internal/adapters/mq/queue"
	"github.com/okian/perfscore/internal/domain/dedupe"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/pkg/logger"
	"github.com/okian/perfscore/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultQueueSize        = 1024
)

// Fetcher assembles the raw inputs of one employee.
type Fetcher interface {
	Inputs(ctx context.Context, req model.Request) (model.EmployeeInputs, error)
}

// Scorer turns raw inputs into a performance record.
type Scorer interface {
	Score(in model.EmployeeInputs, referenceDate time.Time) model.EmployeePerformanceScore
}

// Result is the outcome for one employee of a cohort. Seq is the position of
// the employee in the de-duplicated request list.
type Result struct {
	Seq        int
	EmployeeID string
	Score      model.EmployeePerformanceScore
	Err        error
}

// job is one employee waiting for a worker.
type job struct {
	batchCtx context.Context
	ctx      context.Context
	batchID  string
	seq      int
	req      model.Request
	fetcher  Fetcher
	out      chan<- Result
}

// Pool runs a fixed number of workers over a shared job queue. One
// employee's failure never aborts the rest of its batch.
type Pool struct {
	name        string
	workerCount int
	queueSize   int
	queue       *queue.InMemoryQueue[job]
	fetcher     Fetcher
	scorer      Scorer
	logger      logger.Logger

	mu      sync.Mutex
	cancels map[string]map[string]context.CancelFunc // employee -> batch -> cancel

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewPool creates a new worker pool. fetcher is the default input source and
// may be nil when every batch supplies its own. Workers start on Start or on
// the first batch.
func NewPool(workerCount int, fetcher Fetcher, scorer Scorer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		name:        "worker-pool",
		workerCount: workerCount,
		queueSize:   defaultQueueSize,
		fetcher:     fetcher,
		scorer:      scorer,
		cancels:     make(map[string]map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	p.queue = queue.NewInMemoryQueue[job](queue.WithCapacity(p.queueSize))

	return p
}

// Start launches the workers. Workers exit when ctx is done or the pool
// is shut down. Calling Start more than once has no effect.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.wg.Add(p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			go p.run(ctx)
		}
		p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.workerCount))
	})
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workerCount
}

// ScoreCohort scores every requested employee and returns one Result per
// distinct employee, in request order. Repeated employee IDs are scored once.
// Per-employee errors are reported in Result.Err; the returned error is set
// only when the pool is stopped before any work was queued.
func (p *Pool) ScoreCohort(ctx context.Context, reqs []model.Request) ([]Result, error) {
	return p.ScoreCohortFrom(ctx, p.fetcher, reqs)
}

// ScoreCohortFrom is ScoreCohort reading inputs from fetcher instead of the
// pool's default source.
func (p *Pool) ScoreCohortFrom(ctx context.Context, fetcher Fetcher, reqs []model.Request) ([]Result, error) {
	if fetcher == nil {
		return nil, ErrNoFetcher
	}
	if p.queue.IsClosed() {
		return nil, ErrStopped
	}
	p.Start(context.Background())

	start := time.Now()
	batchID := uuid.NewString()
	uniq := dedupe.Unique(reqs, func(r model.Request) string { return r.EmployeeID })
	out := make(chan Result, len(uniq))
	results := make([]Result, len(uniq))
	filled := make([]bool, len(uniq))

	p.logger.Debug(ctx, "batch started", logger.String("batch_id", batchID), logger.Int("employees", len(uniq)))

	pending := 0
	for seq, req := range uniq {
		jobCtx, cancel := context.WithCancel(ctx)
		p.register(req.EmployeeID, batchID, cancel)
		j := job{batchCtx: ctx, ctx: jobCtx, batchID: batchID, seq: seq, req: req, fetcher: fetcher, out: out}
		if err := p.queue.EnqueueWait(ctx, j); err != nil {
			p.release(req.EmployeeID, batchID)
			if errors.Is(err, queue.ErrClosed) {
				err = ErrStopped
			}
			results[seq] = Result{Seq: seq, EmployeeID: req.EmployeeID, Err: err}
			filled[seq] = true
			metrics.RecordEmployeeFailure("enqueue")
			continue
		}
		pending++
	}

collect:
	for pending > 0 {
		select {
		case r := <-out:
			results[r.Seq] = r
			filled[r.Seq] = true
			pending--
		case <-ctx.Done():
			break collect
		}
	}
	for seq, ok := range filled {
		if !ok {
			results[seq] = Result{Seq: seq, EmployeeID: uniq[seq].EmployeeID, Err: ctx.Err()}
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	elapsed := time.Since(start)
	metrics.RecordBatch(len(uniq), float64(elapsed.Milliseconds()))
	p.logger.Info(ctx, "batch finished",
		logger.String("batch_id", batchID),
		logger.Int("employees", len(uniq)),
		logger.Int("failed", failed),
		logger.Duration("elapsed", elapsed),
	)

	return results, nil
}

// Cancel aborts every queued or running computation for employeeID. It
// reports whether anything was cancelled.
func (p *Pool) Cancel(employeeID string) bool {
	p.mu.Lock()
	batches := p.cancels[employeeID]
	delete(p.cancels, employeeID)
	p.mu.Unlock()

	for _, cancel := range batches {
		cancel()
	}
	return len(batches) > 0
}

// Shutdown stops accepting batches, lets workers finish queued jobs and
// waits for them until ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if cerr := p.queue.Close(); cerr != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
		}

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.logger.Info(ctx, "worker pool stopped")
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker pool shutdown timed out")
			err = fmt.Errorf("shutdown timed out: %w", ctx.Err())
			return
		}

		// jobs stranded by workers that exited on their own context
		for {
			j, derr := p.queue.Dequeue(context.Background())
			if derr != nil {
				break
			}
			p.finish(j, Result{Seq: j.seq, EmployeeID: j.req.EmployeeID, Err: ErrStopped})
		}
	})
	return err
}

// run is the worker loop.
func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		j, err := p.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		p.process(j)
	}
}

// process scores a single employee and always delivers a Result.
func (p *Pool) process(j job) {
	metrics.AddWorkersActive(1)
	defer metrics.AddWorkersActive(-1)

	start := time.Now()
	res := Result{Seq: j.seq, EmployeeID: j.req.EmployeeID}
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
		p.finish(j, res)
	}()

	if err := p.jobErr(j); err != nil {
		res.Err = err
		metrics.RecordEmployeeFailure(failureReason(err))
		return
	}

	in, err := j.fetcher.Inputs(j.ctx, j.req)
	if err != nil {
		if jerr := p.jobErr(j); jerr != nil {
			err = jerr
		}
		res.Err = fmt.Errorf("fetch inputs for %s: %w", j.req.EmployeeID, err)
		metrics.RecordEmployeeFailure(failureReason(err))
		metrics.RecordErrorByComponent("worker", "fetch_error")
		p.logger.Warn(j.ctx, "employee not scored",
			logger.String("batch_id", j.batchID),
			logger.String("employee_id", j.req.EmployeeID),
			logger.Error(err),
		)
		return
	}

	res.Score = p.scorer.Score(in, j.req.ReferenceDate)
	metrics.RecordScoreComputed(res.Score.OverallScore, res.Score.WarningPenalty.TotalPenalty)
}

// jobErr distinguishes a per-employee cancel from the whole batch ending.
func (p *Pool) jobErr(j job) error {
	if j.ctx.Err() == nil {
		return nil
	}
	if err := j.batchCtx.Err(); err != nil {
		return err
	}
	return ErrCancelled
}

func (p *Pool) finish(j job, r Result) {
	p.release(j.req.EmployeeID, j.batchID)
	j.out <- r
}

func (p *Pool) register(employeeID, batchID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	batches, ok := p.cancels[employeeID]
	if !ok {
		batches = make(map[string]context.CancelFunc)
		p.cancels[employeeID] = batches
	}
	batches[batchID] = cancel
}

// release drops and cancels the job context.
func (p *Pool) release(employeeID, batchID string) {
	p.mu.Lock()
	cancel := p.cancels[employeeID][batchID]
	delete(p.cancels[employeeID], batchID)
	if len(p.cancels[employeeID]) == 0 {
		delete(p.cancels, employeeID)
	}
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, context.Canceled):
		return "batch_cancelled"
	case errors.Is(err, ErrStopped):
		return "stopped"
	default:
		return "fetch"
	}
}
