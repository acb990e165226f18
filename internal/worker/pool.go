package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrQueueFull is returned by SubmitJob when the backlog is at capacity.
	ErrQueueFull = errors.New("job queue full")
	// ErrStopped is returned by SubmitJob after Stop has been called.
	ErrStopped = errors.New("dispatcher stopped")
)

// Job represents a unit of background work.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Worker runs jobs handed to it through its own channel.
type Worker struct {
	ID         int
	WorkerPool chan chan Job // where the worker registers JobChannel when idle
	JobChannel chan Job
	Timeout    time.Duration
	Logger     *logrus.Logger
	Wg         *sync.WaitGroup
}

// NewWorker creates a new Worker.
func NewWorker(id int, workerPool chan chan Job, timeout time.Duration, logger *logrus.Logger, wg *sync.WaitGroup) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Timeout:    timeout,
		Logger:     logger,
		Wg:         wg,
	}
}

// Start makes the Worker listen for jobs until its JobChannel is closed.
func (w Worker) Start() {
	w.Wg.Add(1)
	go func() {
		defer w.Wg.Done()
		for {
			w.WorkerPool <- w.JobChannel
			job, ok := <-w.JobChannel
			if !ok {
				w.Logger.Debugf("Worker %d: Stopping", w.ID)
				return
			}
			w.run(job)
		}
	}()
}

func (w Worker) run(job Job) {
	ctx := context.Background()
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	entry := w.Logger.WithFields(logrus.Fields{"worker": w.ID, "job_id": job.ID()})
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			entry.Errorf("Job panicked: %v", r)
		}
	}()
	if err := job.Execute(ctx); err != nil {
		entry.WithError(err).Error("Job failed")
		return
	}
	entry.WithField("duration", time.Since(started).String()).Info("Job finished")
}

// Dispatcher manages a pool of workers and dispatches queued jobs to them.
type Dispatcher struct {
	MaxWorkers int
	WorkerPool chan chan Job
	JobQueue   chan Job
	Workers    []Worker
	Logger     *logrus.Logger
	JobTimeout time.Duration

	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopping bool
	quit     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(maxWorkers, jobQueueSize int, logger *logrus.Logger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if jobQueueSize < 0 {
		jobQueueSize = 0
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		Logger:     logger,
		quit:       make(chan struct{}),
		finished:   make(chan struct{}),
	}
}

// Run starts the dispatcher and its workers.
func (d *Dispatcher) Run() {
	d.Logger.Infof("Dispatcher starting with %d workers", d.MaxWorkers)
	for i := 1; i <= d.MaxWorkers; i++ {
		worker := NewWorker(i, d.WorkerPool, d.JobTimeout, d.Logger, &d.wg)
		d.Workers = append(d.Workers, worker)
		worker.Start()
	}
	go d.dispatch()
}

// dispatch hands each queued job to the next idle worker. After quit it
// drains whatever is still queued, then releases the workers.
func (d *Dispatcher) dispatch() {
	defer close(d.finished)
	for {
		select {
		case job := <-d.JobQueue:
			d.assign(job)
		case <-d.quit:
			for {
				select {
				case job := <-d.JobQueue:
					d.assign(job)
				default:
					for _, w := range d.Workers {
						close(w.JobChannel)
					}
					return
				}
			}
		}
	}
}

func (d *Dispatcher) assign(job Job) {
	jobChannel := <-d.WorkerPool
	jobChannel <- job
}

// SubmitJob queues a job without blocking.
func (d *Dispatcher) SubmitJob(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopping {
		return ErrStopped
	}
	select {
	case d.JobQueue <- job:
		d.Logger.WithField("job_id", job.ID()).Debug("Job queued")
		return nil
	default:
		d.Logger.WithField("job_id", job.ID()).Warn("Job queue full")
		return ErrQueueFull
	}
}

// Stop refuses new jobs, runs the ones already queued and waits for every
// worker to exit, or for ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopping = true
		d.mu.Unlock()
		close(d.quit)
	})

	done := make(chan struct{})
	go func() {
		<-d.finished
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.Logger.Info("Dispatcher: Shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
