package worker_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/masarhr/murshid/internal/adapters/mq/queue"
	"github.com/masarhr/murshid/internal/adapters/mq/worker"
	"github.com/masarhr/murshid/internal/adapters/repository"
	"github.com/masarhr/murshid/internal/domain/model"
	"github.com/masarhr/murshid/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubRanker fails for employee ids listed in fail.
type stubRanker struct {
	fail map[string]bool
}

func (r *stubRanker) Rank(_ context.Context, p model.EmployeeProfile, _ []model.CourseCandidate, topK int) ([]model.Recommendation, error) {
	if r.fail[p.EmployeeID] {
		return nil, errors.New("malformed profile")
	}
	recs := make([]model.Recommendation, 0, topK)
	for i := 0; i < topK; i++ {
		recs = append(recs, model.Recommendation{
			CourseID:   fmt.Sprintf("c-%d", i+1),
			FinalScore: 0.9 - float64(i)*0.1,
			Rank:       i + 1,
		})
	}
	return recs, nil
}

// memResults collects stored results behind a mutex.
type memResults struct {
	mu      sync.Mutex
	results map[string]repository.Result
}

func newMemResults() *memResults {
	return &memResults{results: map[string]repository.Result{}}
}

func (m *memResults) Put(_ context.Context, res repository.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[res.EmployeeID] = res
	return nil
}

func (m *memResults) get(employeeID string) (repository.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.results[employeeID]
	return res, ok
}

func (m *memResults) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// memTracker counts per-batch outcomes.
type memTracker struct {
	mu        sync.Mutex
	succeeded map[string]int
	failed    map[string]int
}

func newMemTracker() *memTracker {
	return &memTracker{succeeded: map[string]int{}, failed: map[string]int{}}
}

func (t *memTracker) JobSucceeded(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.succeeded[batchID]++
}

func (t *memTracker) JobFailed(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed[batchID]++
}

func (t *memTracker) counts(batchID string) (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.succeeded[batchID], t.failed[batchID]
}

func job(employeeID string) worker.Job {
	return worker.Job{
		JobID:   "job-" + employeeID,
		BatchID: "batch-1",
		Profile: model.EmployeeProfile{EmployeeID: employeeID},
		Candidates: []model.CourseCandidate{
			{ID: "c-1"}, {ID: "c-2"}, {ID: "c-3"},
		},
		TopK: 3,
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestWorkerProcessesJobs(t *testing.T) {
	Convey("Given a running worker over a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		results := newMemResults()
		tracker := newMemTracker()
		w := worker.NewInMemoryWorker(q, &stubRanker{}, results, tracker, worker.WithName("worker-test"))
		go w.Run(ctx)

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, job("emp-1")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("emp-2")), ShouldBeTrue)

			Convey("Then results land in the store", func() {
				So(waitFor(func() bool { return results.count() == 2 }), ShouldBeTrue)

				res, ok := results.get("emp-1")
				So(ok, ShouldBeTrue)
				So(res.BatchID, ShouldEqual, "batch-1")
				So(res.Recommendations, ShouldHaveLength, 3)

				succeeded, failed := tracker.counts("batch-1")
				So(succeeded, ShouldEqual, 2)
				So(failed, ShouldEqual, 0)
			})
		})
	})
}

func TestWorkerFailureIsolation(t *testing.T) {
	Convey("Given a batch where one profile cannot be ranked", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		results := newMemResults()
		tracker := newMemTracker()
		ranker := &stubRanker{fail: map[string]bool{"emp-bad": true}}
		w := worker.NewInMemoryWorker(q, ranker, results, tracker)
		go w.Run(ctx)

		Convey("When all jobs are enqueued", func() {
			So(q.Enqueue(ctx, job("emp-1")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("emp-bad")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("emp-2")), ShouldBeTrue)

			Convey("Then siblings complete and the failure is counted", func() {
				So(waitFor(func() bool {
					s, f := tracker.counts("batch-1")
					return s+f == 3
				}), ShouldBeTrue)

				succeeded, failed := tracker.counts("batch-1")
				So(succeeded, ShouldEqual, 2)
				So(failed, ShouldEqual, 1)
				So(results.count(), ShouldEqual, 2)
				_, ok := results.get("emp-bad")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, &stubRanker{}, newMemResults(), newMemTracker())
		go w.Run(ctx)

		Convey("When shut down with headroom", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			Convey("Then shutdown completes cleanly", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers sharing one queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		results := newMemResults()
		tracker := newMemTracker()
		pool := worker.NewPool(4, q, &stubRanker{}, results, tracker)
		pool.Start(ctx)

		Convey("When a burst of jobs arrives", func() {
			const n = 100
			for i := 0; i < n; i++ {
				So(q.Enqueue(ctx, job(fmt.Sprintf("emp-%d", i))), ShouldBeTrue)
			}

			Convey("Then every job is processed exactly once", func() {
				So(waitFor(func() bool { return results.count() == n }), ShouldBeTrue)
				succeeded, failed := tracker.counts("batch-1")
				So(succeeded, ShouldEqual, n)
				So(failed, ShouldEqual, 0)
			})

			Convey("Then shutdown drains and returns", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}
