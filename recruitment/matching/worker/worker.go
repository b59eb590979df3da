package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// Processor runs one sync job.
type Processor interface {
	ProcessSyncJob(ctx context.Context, job *matching.SyncJob) (matching.SyncReport, error)
}

type Config struct {
	Workers       int
	PollTimeout   time.Duration
	DelayedTicker time.Duration
}

// SyncWorker pulls embedding sync jobs off the queue with a fixed pool of
// goroutines and promotes delayed retries when they are due.
type SyncWorker struct {
	processor Processor
	queue     matching.SyncQueue
	cfg       Config
	wg        sync.WaitGroup
}

func NewSyncWorker(processor Processor, queue matching.SyncQueue, cfg Config) *SyncWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.DelayedTicker <= 0 {
		cfg.DelayedTicker = 30 * time.Second
	}
	return &SyncWorker{processor: processor, queue: queue, cfg: cfg}
}

// Start launches the pool and returns. Cancel ctx to stop it, then Wait.
func (w *SyncWorker) Start(ctx context.Context) {
	logx.Infof("Starting %d sync workers", w.cfg.Workers)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.moveDelayedJobs(ctx)
	}()

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processJobs(ctx, id)
		}(i)
	}
}

// Wait blocks until every goroutine started by Start has returned.
func (w *SyncWorker) Wait() {
	w.wg.Wait()
}

func (w *SyncWorker) processJobs(ctx context.Context, workerID int) {
	logx.Infof("Worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			logx.Infof("Worker %d stopping", workerID)
			return
		default:
		}

		data, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logx.Errorf("Worker %d dequeue error: %v", workerID, err)
			w.pause(ctx)
			continue
		}
		if len(data) == 0 {
			continue
		}

		w.handle(ctx, workerID, data)
	}
}

func (w *SyncWorker) handle(ctx context.Context, workerID int, data []byte) {
	var job matching.SyncJob
	if err := json.Unmarshal(data, &job); err != nil {
		logx.Errorf("Worker %d unmarshal error: %v (data: %s)", workerID, err, logx.TruncateForLog(string(data), 200))
		return
	}

	logx.Infof("Worker %d processing sync job: %s", workerID, job.ID)
	report, err := w.processor.ProcessSyncJob(ctx, &job)
	if err != nil {
		logx.Errorf("Worker %d sync job %s failed: %v", workerID, job.ID, err)
		return
	}
	logx.Debugf("Worker %d sync job %s: embedded=%d unchanged=%d failed=%d",
		workerID, job.ID, report.Embedded, report.Unchanged, report.Failed)
}

func (w *SyncWorker) moveDelayedJobs(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.DelayedTicker)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := w.queue.MoveDelayedToReady(ctx)
			if err != nil {
				logx.Errorf("Failed to move delayed sync jobs: %v", err)
			} else if count > 0 {
				logx.Infof("Moved %d delayed sync jobs to ready queue", count)
			}
		}
	}
}

// pause backs off after a queue error so a dead broker is not hammered.
func (w *SyncWorker) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
	}
}
