package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/masarhr/murshid/internal/adapters/repository"
	"github.com/masarhr/murshid/internal/domain/model"
)

func result(employeeID string, score float64) repository.Result {
	return repository.Result{
		EmployeeID: employeeID,
		BatchID:    "batch-1",
		Recommendations: []model.Recommendation{
			{CourseID: "c-1", FinalScore: score, Rank: 1},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestShardStore(t *testing.T) {
	Convey("Given a sharded store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := repository.NewShardStore(ctx, repository.WithShardCount(4))
		defer func() { _ = s.Close() }()

		Convey("When putting and getting a result", func() {
			So(s.Put(ctx, result("emp-1", 0.8)), ShouldBeNil)
			got, err := s.Get(ctx, "emp-1")

			Convey("Then the stored result comes back", func() {
				So(err, ShouldBeNil)
				So(got.EmployeeID, ShouldEqual, "emp-1")
				So(got.Recommendations, ShouldHaveLength, 1)
				So(got.Recommendations[0].FinalScore, ShouldEqual, 0.8)
			})
		})

		Convey("When getting an unknown employee", func() {
			_, err := s.Get(ctx, "nobody")

			Convey("Then the not-found sentinel is returned", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When putting twice for the same employee", func() {
			So(s.Put(ctx, result("emp-1", 0.5)), ShouldBeNil)
			So(s.Put(ctx, result("emp-1", 0.9)), ShouldBeNil)
			got, err := s.Get(ctx, "emp-1")

			Convey("Then the latest result replaces the earlier one", func() {
				So(err, ShouldBeNil)
				So(got.Recommendations[0].FinalScore, ShouldEqual, 0.9)
				So(s.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the context is cancelled", func() {
			cancelled, c := context.WithCancel(ctx)
			c()

			Convey("Then reads and writes refuse", func() {
				So(s.Put(cancelled, result("emp-1", 0.5)), ShouldEqual, context.Canceled)
				_, err := s.Get(cancelled, "emp-1")
				So(err, ShouldEqual, context.Canceled)
			})
		})
	})
}

func TestShardStoreConcurrency(t *testing.T) {
	Convey("Given many writers across shards", t, func() {
		ctx := context.Background()
		s := repository.NewShardStore(ctx, repository.WithShardCount(8))
		defer func() { _ = s.Close() }()

		const writers = 16
		const perWriter = 50

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					id := fmt.Sprintf("emp-%d-%d", w, i)
					_ = s.Put(ctx, result(id, 0.5))
				}
			}(w)
		}
		wg.Wait()

		Convey("Then every write landed exactly once", func() {
			So(s.Count(ctx), ShouldEqual, writers*perWriter)
			got, err := s.Get(ctx, "emp-0-0")
			So(err, ShouldBeNil)
			So(got.EmployeeID, ShouldEqual, "emp-0-0")
		})
	})
}
