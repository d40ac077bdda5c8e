// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/masarhr/murshid/internal/adapters/modelstore"
	jobqueue "github.com/masarhr/murshid/internal/adapters/mq/queue"
	workerpool "github.com/masarhr/murshid/internal/adapters/mq/worker"
	"github.com/masarhr/murshid/internal/adapters/repository"
	"github.com/masarhr/murshid/internal/domain/dedupe"
	"github.com/masarhr/murshid/internal/domain/feature"
	"github.com/masarhr/murshid/internal/domain/model"
	"github.com/masarhr/murshid/internal/domain/ranking"
	"github.com/masarhr/murshid/internal/domain/scoring"
	"github.com/masarhr/murshid/pkg/logger"
	"github.com/masarhr/murshid/pkg/metrics"
)

// Service wires the recommendation pipeline, the model registry and the
// batch machinery behind one facade for the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	ranker   *ranking.Ranker
	registry *modelstore.Registry
	results  repository.Store
	deduper  dedupe.Deduper
	jobQueue jobqueue.Queue
	pool     *workerpool.Pool
	tracker  *batchTracker

	// Configuration
	modelPath          string
	alpha              float64
	defaultTopK        int
	maxTopK            int
	grouping           string
	relatedDepartments map[string][]string
	careerThresholds   []int
	workerCount        int
	queueSize          int
	dedupeSize         int
	shardCount         int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithModelPath sets the model artifact path.
func WithModelPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.modelPath = path
		}
	}
}

// WithAlpha sets the default fusion weight.
func WithAlpha(alpha float64) Option {
	return func(s *Service) {
		if alpha >= 0 && alpha <= 1 {
			s.alpha = alpha
		}
	}
}

// WithTopK sets the default and maximum result sizes.
func WithTopK(defaultTopK, maxTopK int) Option {
	return func(s *Service) {
		if defaultTopK > 0 && maxTopK >= defaultTopK {
			s.defaultTopK = defaultTopK
			s.maxTopK = maxTopK
		}
	}
}

// WithGrouping sets the diversity grouping strategy.
func WithGrouping(grouping string) Option {
	return func(s *Service) {
		if grouping != "" {
			s.grouping = grouping
		}
	}
}

// WithRelatedDepartments sets the department relatedness table.
func WithRelatedDepartments(related map[string][]string) Option {
	return func(s *Service) {
		if related != nil {
			s.relatedDepartments = related
		}
	}
}

// WithCareerThresholds sets the career-level year boundaries.
func WithCareerThresholds(thresholds []int) Option {
	return func(s *Service) {
		if len(thresholds) == 3 {
			s.careerThresholds = thresholds
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

// WithQueueSize sets the maximum size of the batch job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the batch deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the result store shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		modelPath:   "./models/ensemble.json",
		alpha:       ranking.DefaultAlpha,
		defaultTopK: ranking.DefaultTopK,
		maxTopK:     50,
		grouping:    ranking.GroupBySkillCategory,
		workerCount: runtime.NumCPU() * 4,
		queueSize:   100000,
		dedupeSize:  500000,
		shardCount:  8,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components. A missing or
// corrupt model artifact is logged, not fatal: the service starts and
// serves rule-dominated recommendations until a reload succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting recommendation service...")

	encoder := feature.NewEncoder(
		feature.WithExperienceThresholds(s.thresholds()),
	)
	rules := scoring.NewScorer(
		scoring.WithRelatedDepartments(s.relatedDepartments),
		scoring.WithCareerThresholds(s.thresholds()),
	)

	s.registry = modelstore.NewRegistry(s.modelPath, modelstore.WithLogger(s.logger.Named("modelstore")))
	if err := s.registry.Load(ctx); err != nil {
		s.logger.Warn(ctx, "model artifact unavailable, serving without ML signal",
			logger.String("path", s.modelPath),
			logger.Error(err),
		)
	}

	s.ranker = ranking.NewRanker(encoder, rules, s.registry,
		ranking.WithAlpha(s.alpha),
		ranking.WithGrouping(s.grouping),
	)

	s.results = repository.NewShardStore(ctx,
		repository.WithShardCount(s.shardCount),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.tracker = newBatchTracker()
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
		// A job pulled off the queue during shutdown still counts against
		// its batch.
		jobqueue.WithDropHandler(func(j jobqueue.Job) {
			s.tracker.JobFailed(j.BatchID)
			metrics.RecordBatchJobFailed()
		}),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.ranker, s.results, s.tracker)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("modelMode", s.registry.Status().Mode),
	)

	return nil
}

func (s *Service) thresholds() (int, int, int) {
	if len(s.careerThresholds) == 3 {
		return s.careerThresholds[0], s.careerThresholds[1], s.careerThresholds[2]
	}
	return 2, 5, 10
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping recommendation service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.results != nil {
		_ = s.results.Close()
	}
	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	s.started = false
	s.logger.Info(ctx, "recommendation service stopped")
}

// Recommend runs the pipeline synchronously for one employee. alpha
// outside [0,1] (e.g. the API's "not set" marker) falls back to the
// configured default.
func (s *Service) Recommend(ctx context.Context, p model.EmployeeProfile, candidates []model.CourseCandidate, topK int, alpha float64) ([]model.Recommendation, error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	recs, err := s.ranker.RankWithAlpha(ctx, p, candidates, topK, alpha)
	if err != nil {
		metrics.RecordRankingError()
		return nil, err
	}
	return recs, nil
}

// EnqueueBatch accepts a batch of employees to rank against a shared
// catalog. It returns the effective batch id, the number of enqueued jobs
// and whether the batch id was a duplicate submission. Per-job enqueue
// failures are counted against the batch, never aborting siblings.
func (s *Service) EnqueueBatch(ctx context.Context, batchID string, profiles []model.EmployeeProfile, candidates []model.CourseCandidate, topK int) (string, int, bool) {
	if batchID == "" {
		batchID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, batchID) {
		metrics.RecordBatchJobDuplicate()
		s.logger.Debug(ctx, "duplicate batch detected, skipping",
			logger.String("batchID", batchID),
		)
		return batchID, 0, true
	}

	if topK <= 0 {
		topK = s.defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	s.tracker.Register(batchID, len(profiles))

	enqueued := 0
	for i := range profiles {
		job := jobqueue.Job{
			JobID:      uuid.NewString(),
			BatchID:    batchID,
			Profile:    profiles[i],
			Candidates: candidates,
			TopK:       topK,
		}
		if !s.jobQueue.Enqueue(ctx, job) {
			s.tracker.JobFailed(batchID)
			metrics.RecordBatchJobFailed()
			s.logger.Warn(ctx, "batch job rejected by queue",
				logger.String("batchID", batchID),
				logger.String("employeeID", profiles[i].EmployeeID),
			)
			continue
		}
		enqueued++
		metrics.RecordBatchJobAccepted()
	}

	if enqueued == 0 && len(profiles) > 0 {
		// Nothing entered the queue; let the client retry the same id.
		s.deduper.Unrecord(ctx, batchID)
	}

	return batchID, enqueued, false
}

// BatchStatus returns the progress of a batch, or false if unknown.
func (s *Service) BatchStatus(batchID string) (BatchStatus, bool) {
	return s.tracker.Status(batchID)
}

// StoredRecommendations returns the latest stored result for an employee.
// Returns repository.ErrNotFound if none exists.
func (s *Service) StoredRecommendations(ctx context.Context, employeeID string) (repository.Result, error) {
	return s.results.Get(ctx, employeeID)
}

// ModelStatus reports the current model registry state.
func (s *Service) ModelStatus() modelstore.Status {
	return s.registry.Status()
}

// ReloadModel atomically swaps in a re-read model artifact.
func (s *Service) ReloadModel(ctx context.Context) error {
	return s.registry.Reload(ctx)
}

// RankerConfig describes the active fusion and diversity configuration.
type RankerConfig struct {
	Alpha            float64            `json:"alpha"`
	DefaultTopK      int                `json:"default_top_k"`
	MaxTopK          int                `json:"max_top_k"`
	Grouping         string             `json:"diversity_grouping"`
	CriterionWeights map[string]float64 `json:"criterion_weights"`
}

// GetRankerConfig returns the active ranker configuration.
func (s *Service) GetRankerConfig() RankerConfig {
	return RankerConfig{
		Alpha:            s.ranker.Alpha(),
		DefaultTopK:      s.defaultTopK,
		MaxTopK:          s.maxTopK,
		Grouping:         s.ranker.Grouping(),
		CriterionWeights: scoring.CriterionWeights(),
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		storedResults := s.results.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedResults"] = storedResults
		stats["trackedBatches"] = s.tracker.Count()
		stats["modelStatus"] = s.registry.Status()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRepositoryRecordsTotal(storedResults)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// DedupeSize returns the current number of entries in the deduper.
func (s *Service) DedupeSize() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
