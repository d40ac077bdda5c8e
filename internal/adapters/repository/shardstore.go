package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/masarhr/murshid/pkg/metrics"
)

// Default ShardStore configuration.
const (
	defaultShardCount            = 8
	defaultMetricsUpdateInterval = 5 * time.Second
)

// shard is one lock-striped partition of the store.
type shard struct {
	mu   sync.RWMutex
	byID map[string]Result
}

// ShardStore is a sharded, in-memory Store implementation. Keys are
// striped across shards by FNV-1a hash of the employee id so concurrent
// batch workers contend on different locks.
type ShardStore struct {
	shardCount            int
	metricsUpdateInterval time.Duration

	shards []*shard

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewShardStore constructs a sharded store with configuration options.
// The passed context bounds the background metrics goroutine.
func NewShardStore(ctx context.Context, opts ...Option) *ShardStore {
	s := &ShardStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{byID: make(map[string]Result)}
	}

	s.stopChan = make(chan struct{})
	metrics.UpdateRepositoryShardCount(s.shardCount)
	s.startMetricsUpdater(ctx)

	return s
}

func (s *ShardStore) shardFor(employeeID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(employeeID))
	return s.shards[int(h.Sum32())%s.shardCount]
}

// Put implements Store.
func (s *ShardStore) Put(ctx context.Context, res Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	sh := s.shardFor(res.EmployeeID)
	sh.mu.Lock()
	sh.byID[res.EmployeeID] = res
	sh.mu.Unlock()

	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	return nil
}

// Get implements Store.
func (s *ShardStore) Get(ctx context.Context, employeeID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	sh := s.shardFor(employeeID)
	sh.mu.RLock()
	res, ok := sh.byID[employeeID]
	sh.mu.RUnlock()

	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	if !ok {
		return Result{}, ErrNotFound
	}
	return res, nil
}

// Count implements Store.
func (s *ShardStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.byID)
		sh.mu.RUnlock()
	}
	return total
}

// Close stops the metrics goroutine. Stored results stay readable.
func (s *ShardStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// startMetricsUpdater starts a background goroutine that refreshes
// repository gauges at the configured interval.
func (s *ShardStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
			}
		}
	}()
}
