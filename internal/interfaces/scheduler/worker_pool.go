package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mrk/internal/shared/logger"
)

var (
	jobTracer          = otel.Tracer("mrk/scheduler")
	jobMeter           = otel.Meter("mrk/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Total jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Jobs dropped due to full queue"))
)

var (
	ErrQueueFull  = errors.New("job queue full")
	ErrPoolClosed = errors.New("worker pool closed")
)

const defaultJobTimeout = 10 * time.Minute

// WorkerPool runs submitted jobs on a fixed number of goroutines fed by a
// buffered channel.
type WorkerPool struct {
	workerCount int
	jobDelay    time.Duration
	jobTimeout  time.Duration
	jobs        chan Job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool. jobDelay is a pause each worker takes after
// a job; jobTimeout bounds a single Execute call.
func NewWorkerPool(workerCount int, jobDelay, jobTimeout time.Duration, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.WithContext(ctx, logger.Default().With().Str("component", "worker_pool").Logger())

	return &WorkerPool{
		workerCount: workerCount,
		jobDelay:    jobDelay,
		jobTimeout:  jobTimeout,
		jobs:        make(chan Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	l := logger.FromContext(wp.ctx)
	l.Info().Int("workers", wp.workerCount).Msg("starting worker pool")

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	l := logger.FromContext(wp.ctx).With().Int("worker", id).Logger()
	l.Debug().Msg("worker started")

	for {
		select {
		case <-wp.ctx.Done():
			l.Debug().Msg("worker shutting down")
			return

		case job, ok := <-wp.jobs:
			if !ok {
				l.Debug().Msg("job channel closed")
				return
			}

			wp.processJob(id, job)

			if wp.jobDelay > 0 {
				select {
				case <-time.After(wp.jobDelay):
				case <-wp.ctx.Done():
					return
				}
			}
		}
	}
}

// processJob executes a single job with a timeout, a span and metrics.
func (wp *WorkerPool) processJob(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
	defer cancel()

	l := logger.FromContext(ctx).With().
		Int("worker", workerID).
		Str("job", job.Name()).
		Logger()
	ctx = logger.WithContext(ctx, l)

	ctx, span := jobTracer.Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.name", job.Name()),
			attribute.String("job.description", job.Description()),
		),
	)
	defer span.End()

	l.Info().Str("description", job.Description()).Msg("processing job")
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("job panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("job", job.Name()), attribute.String("status", "panic")))
			l.Error().Err(err).Msg("job panicked")
		}
	}()

	err := job.Execute(ctx)
	elapsed := time.Since(start)
	jobDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("job", job.Name())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("job", job.Name()), attribute.String("status", "error")))
		l.Error().Err(err).Dur("duration", elapsed).Msg("job failed")
		return
	}

	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("job", job.Name()), attribute.String("status", "success")))
	l.Info().Dur("duration", elapsed).Msg("job completed")
}

// Submit queues a job without blocking. It returns ErrQueueFull when the
// buffer is full and ErrPoolClosed after shutdown began.
func (wp *WorkerPool) Submit(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.jobs <- job:
		return nil
	default:
		jobQueueDropped.Add(wp.ctx, 1, metric.WithAttributes(attribute.String("job", job.Name())))
		l := logger.FromContext(wp.ctx)
		l.Warn().Str("job", job.Name()).Msg("job queue full, dropping job")
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, job.Name())
	}
}

// SubmitBatch queues jobs and returns how many were accepted.
func (wp *WorkerPool) SubmitBatch(jobs []Job) int {
	l := logger.FromContext(wp.ctx)

	submitted := 0
	for _, job := range jobs {
		if err := wp.Submit(job); err != nil {
			l.Warn().Err(err).Str("job", job.Name()).Msg("failed to submit job")
			continue
		}
		submitted++
	}
	l.Info().Int("submitted", submitted).Int("total", len(jobs)).Msg("submitted jobs to worker pool")
	return submitted
}

// close stops accepting jobs. It reports false if the pool was already closed.
func (wp *WorkerPool) close() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.closed {
		return false
	}
	wp.closed = true
	close(wp.jobs)
	return true
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (wp *WorkerPool) Shutdown() {
	wp.close()
	wp.wg.Wait()
	wp.cancel()
}

// ShutdownWithTimeout drains the queue but cancels in-flight jobs once
// timeout elapses. It reports whether the workers finished in time.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) bool {
	l := logger.FromContext(wp.ctx)
	wp.close()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	graceful := true
	select {
	case <-done:
	case <-time.After(timeout):
		l.Warn().Dur("timeout", timeout).Msg("worker pool shutdown timed out, cancelling jobs")
		graceful = false
	}
	wp.cancel()

	l.Info().Bool("graceful", graceful).Msg("worker pool stopped")
	return graceful
}
