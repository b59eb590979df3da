package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
	"github.com/Abraxas-365/hireflow/recruitment/matching/matchinginfra"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []kernel.SyncJobID
	done chan struct{}
}

func (p *recordingProcessor) ProcessSyncJob(_ context.Context, job *matching.SyncJob) (matching.SyncReport, error) {
	p.mu.Lock()
	p.seen = append(p.seen, job.ID)
	n := len(p.seen)
	p.mu.Unlock()
	if n == 2 {
		close(p.done)
	}
	return matching.SyncReport{Embedded: len(job.Jobs)}, nil
}

func TestSyncWorkerProcessesQueuedJobs(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := matchinginfra.NewRedisSyncQueue(client, "sync")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, queue.Enqueue(ctx, "s1", matching.SyncJob{ID: "s1"}))
	require.NoError(t, queue.Enqueue(ctx, "s2", matching.SyncJob{ID: "s2"}))
	require.NoError(t, client.LPush(ctx, "sync", "not json").Err())

	proc := &recordingProcessor{done: make(chan struct{})}
	w := NewSyncWorker(proc, queue, Config{Workers: 2, PollTimeout: time.Second, DelayedTicker: time.Hour})
	w.Start(ctx)

	select {
	case <-proc.done:
	case <-time.After(5 * time.Second):
		t.Fatal("sync jobs were not processed")
	}

	cancel()
	w.Wait()

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.ElementsMatch(t, []kernel.SyncJobID{"s1", "s2"}, proc.seen)
}

func TestNewSyncWorkerDefaults(t *testing.T) {
	w := NewSyncWorker(&recordingProcessor{}, nil, Config{})
	assert.Equal(t, 1, w.cfg.Workers)
	assert.Equal(t, 5*time.Second, w.cfg.PollTimeout)
	assert.Equal(t, 30*time.Second, w.cfg.DelayedTicker)
}
