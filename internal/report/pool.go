package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrQueueFull = errors.New("report: export queue full")

// Job asks the pool to write the workbook of one sheet to the export directory.
type Job struct {
	SheetID int64
	EventID string
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(context.Context, Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("export worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("export worker processing job", "worker_id", w.ID, "sheet_id", job.SheetID)
				processFunc(ctx, job)
			case <-ctx.Done():
				w.Logger.Debug("export worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	Workers   int
	QueueSize int
}

// Pool dispatches queued jobs to idle workers.
type Pool struct {
	logger *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
	stopOnce   sync.Once
}

func NewPool(cfg PoolConfig, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	return &Pool{
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the workers and the dispatcher once. Later calls are no-ops.
func (p *Pool) Start(processFunc func(context.Context, Job)) {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(p.ctx, &p.wg, processFunc)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("export worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					p.logger.Info("export dispatcher shutting down")
					return
				}
			case <-p.ctx.Done():
				p.logger.Info("export dispatcher shutting down")
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("export dispatcher shutting down")
			return
		}
	}
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) error {
	if p.ctx.Err() != nil {
		return context.Canceled
	}
	select {
	case p.jobQueue <- job:
		p.logger.Debug("export job queued", "sheet_id", job.SheetID, "queue_length", len(p.jobQueue))
		return nil
	default:
		p.logger.Warn("export queue full, dropping job", "sheet_id", job.SheetID, "queue_capacity", cap(p.jobQueue))
		return ErrQueueFull
	}
}

// Shutdown stops the workers and waits for the job in flight, if any. Queued jobs are dropped.
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down export worker pool", "pending", len(p.jobQueue))
		p.cancel()
		p.wg.Wait()
		p.logger.Info("export worker pool shutdown complete")
	})
}
