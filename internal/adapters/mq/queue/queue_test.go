package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/masarhr/murshid/internal/adapters/mq/queue"
	"github.com/masarhr/murshid/internal/domain/model"
)

func job(id string) queue.Job {
	return queue.Job{
		JobID:   id,
		BatchID: "batch-1",
		Profile: model.EmployeeProfile{EmployeeID: "emp-" + id},
		TopK:    3,
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a bounded in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2), queue.WithBufferSize(2))

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("2")), ShouldBeTrue)

			Convey("Then the length reflects the queued jobs", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And enqueueing beyond capacity is refused", func() {
				So(q.Enqueue(ctx, job("3")), ShouldBeFalse)
			})
		})

		Convey("When dequeuing", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeTrue)
			ch := q.Dequeue(ctx)

			Convey("Then jobs arrive in order with payload intact", func() {
				select {
				case j := <-ch:
					So(j.JobID, ShouldEqual, "1")
					So(j.Profile.EmployeeID, ShouldEqual, "emp-1")
				case <-time.After(time.Second):
					So("timeout waiting for job", ShouldBeEmpty)
				}
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueueing refuses and IsClosed reports it", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("2")), ShouldBeFalse)
			})

			Convey("Then the dequeue channel drains and closes", func() {
				ch := q.Dequeue(ctx)
				j, ok := <-ch
				So(ok, ShouldBeTrue)
				So(j.JobID, ShouldEqual, "1")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})

			Convey("Then closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}

func TestInMemoryQueueDropHandler(t *testing.T) {
	Convey("Given a queue whose consumer goes away mid-delivery", t, func() {
		dropped := make(chan queue.Job, 1)
		q := queue.NewInMemoryQueue(
			queue.WithCapacity(2),
			queue.WithBufferSize(2),
			queue.WithDropHandler(func(j queue.Job) { dropped <- j }),
		)

		ctx, cancel := context.WithCancel(context.Background())
		So(q.Enqueue(context.Background(), job("1")), ShouldBeTrue)

		// Start a dequeue but never read from the returned channel.
		_ = q.Dequeue(ctx)

		// Wait for the forwarder to pull the job off the buffer, then
		// abandon it.
		for i := 0; i < 100 && q.Len(context.Background()) > 0; i++ {
			time.Sleep(10 * time.Millisecond)
		}
		cancel()

		Convey("Then the in-flight job is handed to the drop handler", func() {
			select {
			case j := <-dropped:
				So(j.JobID, ShouldEqual, "1")
				So(j.BatchID, ShouldEqual, "batch-1")
			case <-time.After(2 * time.Second):
				So("timeout waiting for dropped job", ShouldBeEmpty)
			}
		})
	})
}

func TestInMemoryQueueThroughput(t *testing.T) {
	Convey("Given a queue at default capacity", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()

		const n = 1000
		for i := 0; i < n; i++ {
			So(q.Enqueue(ctx, job(fmt.Sprintf("%d", i))), ShouldBeTrue)
		}
		So(q.Close(), ShouldBeNil)

		Convey("Then every job is delivered exactly once", func() {
			seen := 0
			for range q.Dequeue(ctx) {
				seen++
			}
			So(seen, ShouldEqual, n)
		})
	})
}
