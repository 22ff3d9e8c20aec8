package queue

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("When jobs are enqueued past capacity", func() {
			first := q.Enqueue(ctx, Job{Page: "campaign", Reason: ReasonPreload})
			second := q.Enqueue(ctx, Job{Page: "playtime", Reason: ReasonPreload})
			third := q.Enqueue(ctx, Job{Page: "lone-wolf", Reason: ReasonPreload})

			Convey("Then the overflow is dropped", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeTrue)
				So(third, ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then jobs come out in order with an enqueue time", func() {
				jobs := q.Dequeue(ctx)
				j := <-jobs
				So(j.Page, ShouldEqual, "campaign")
				So(j.Enqueued.IsZero(), ShouldBeFalse)
				So((<-jobs).Page, ShouldEqual, "playtime")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, Job{Page: "campaign", Reason: ReasonWatch}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, Job{Page: "playtime", Reason: ReasonWatch}), ShouldBeFalse)
			})

			Convey("Then queued jobs drain before the channel closes", func() {
				jobs := q.Dequeue(ctx)
				So((<-jobs).Page, ShouldEqual, "campaign")
				select {
				case _, ok := <-jobs:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("channel still open", ShouldBeEmpty)
				}
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			q.Enqueue(ctx, Job{Page: "campaign"})
			jobs := q.Dequeue(cctx)

			Convey("Then the dequeue channel closes", func() {
				select {
				case <-jobs:
				case <-time.After(time.Second):
					So("channel still open", ShouldBeEmpty)
				}
			})
		})
	})
}
