package worker

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"contentpilot/api/logger"
	"contentpilot/api/models"

	"go.uber.org/zap"
)

// Handler runs one generation job to completion.
type Handler func(ctx context.Context, job *models.GenerationJob)

// Pool runs generation jobs on a fixed set of workers. Jobs are
// partitioned by user id, so one user's jobs execute in order.
type Pool struct {
	workers    int
	partitions []chan *models.GenerationJob
	handler    Handler
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Metrics
	mu            sync.RWMutex
	jobsProcessed uint64
	totalDuration time.Duration
	jobsDropped   uint64
}

// Stats is a point-in-time snapshot of pool metrics.
type Stats struct {
	Workers       int    `json:"workers"`
	JobsProcessed uint64 `json:"jobs_processed"`
	JobsDropped   uint64 `json:"jobs_dropped"`
	AvgDurationMS int64  `json:"avg_duration_ms"`
	QueuedJobs    int    `json:"queued_jobs"`
}

func NewPool(workers int, handler Handler) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan *models.GenerationJob, workers)
	for i := range partitions {
		partitions[i] = make(chan *models.GenerationJob, 100)
	}
	return &Pool{
		workers:    workers,
		partitions: partitions,
		handler:    handler,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

func (p *Pool) Start() {
	logger.Get().Info("Starting generation worker pool", zap.Int("workers", p.workers))
	for i := range p.partitions {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) Stop() {
	logger.Get().Info("Stopping generation worker pool")
	p.cancelFunc()
	for _, ch := range p.partitions {
		close(ch)
	}
	p.wg.Wait()
}

// Submit queues a job, reporting false when the user's partition is full.
func (p *Pool) Submit(job *models.GenerationJob) bool {
	partition := p.partitionFor(job.UserID)

	select {
	case p.partitions[partition] <- job:
		logger.Get().Debug("generation job queued",
			zap.String("job_id", job.JobID),
			zap.Int("partition", partition))
		return true
	default:
		p.mu.Lock()
		p.jobsDropped++
		p.mu.Unlock()
		logger.Get().Error("generation job dropped: partition full",
			zap.String("job_id", job.JobID),
			zap.Int("partition", partition))
		return false
	}
}

func (p *Pool) partitionFor(userID string) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(p.partitions)))
}

func (p *Pool) worker(partition int) {
	defer p.wg.Done()
	for job := range p.partitions[partition] {
		start := time.Now()
		p.handler(p.ctx, job)
		elapsed := time.Since(start)

		p.mu.Lock()
		p.jobsProcessed++
		p.totalDuration += elapsed
		p.mu.Unlock()

		logger.Get().Debug("generation job finished",
			zap.String("job_id", job.JobID),
			zap.Duration("elapsed", elapsed))
	}
}

func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	queued := 0
	for _, ch := range p.partitions {
		queued += len(ch)
	}

	stats := Stats{
		Workers:       p.workers,
		JobsProcessed: p.jobsProcessed,
		JobsDropped:   p.jobsDropped,
		QueuedJobs:    queued,
	}
	if p.jobsProcessed > 0 {
		stats.AvgDurationMS = p.totalDuration.Milliseconds() / int64(p.jobsProcessed)
	}
	return stats
}
