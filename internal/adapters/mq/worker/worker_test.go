package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/ltrc/internal/adapters/mq/queue"
	"github.com/okian/ltrc/internal/adapters/mq/worker"
	"github.com/okian/ltrc/internal/domain/model"
	logging "github.com/okian/ltrc/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockProcessor struct {
	mu        sync.Mutex
	processed []string
	failures  map[string]error
	seen      chan string
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{
		failures: make(map[string]error),
		seen:     make(chan string, 100),
	}
}

func (m *mockProcessor) Process(_ context.Context, e model.Event) error { //nolint:gocritic // hugeParam: matches interface
	m.mu.Lock()
	err := m.failures[e.ID]
	if err == nil {
		m.processed = append(m.processed, e.ID)
	}
	m.mu.Unlock()
	m.seen <- e.ID
	return err
}

func (m *mockProcessor) fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = err
}

func (m *mockProcessor) done() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.processed...)
}

func (m *mockProcessor) await(n int) int {
	timeout := time.After(2 * time.Second)
	got := 0
	for got < n {
		select {
		case <-m.seen:
			got++
		case <-timeout:
			return got
		}
	}
	return got
}

func roomEvent(id string) model.Event {
	return model.Event{
		ID:   id,
		Mode: model.FFA,
		Results: []model.EventResult{
			{Competitor: "alpha", RawScore: 82},
			{Competitor: "bravo", RawScore: 64},
		},
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from an in-memory queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		proc := newMockProcessor()
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When an event is enqueued", func() {
			convey.So(q.Enqueue(ctx, roomEvent("event-1")), convey.ShouldBeNil)

			convey.Convey("Then the processor receives it", func() {
				convey.So(proc.await(1), convey.ShouldEqual, 1)
				convey.So(proc.done(), convey.ShouldResemble, []string{"event-1"})
			})
		})

		convey.Convey("When processing fails", func() {
			proc.fail("event-bad", errors.New("rating error"))
			convey.So(q.Enqueue(ctx, roomEvent("event-bad")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, roomEvent("event-good")), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(proc.await(2), convey.ShouldEqual, 2)
				convey.So(proc.done(), convey.ShouldResemble, []string{"event-good"})
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Enqueue(ctx, roomEvent("event-last")), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then buffered events drain and the worker stops", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(proc.done(), convey.ShouldContain, "event-last")
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		w := worker.NewInMemoryWorker(q, newMockProcessor())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()

		convey.Convey("Then Shutdown returns without the queue being closed", func() {
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker that never started", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		w := worker.NewInMemoryWorker(q, newMockProcessor())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		convey.Convey("Then Shutdown times out", func() {
			err := w.Shutdown(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		proc := newMockProcessor()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, proc)

			convey.Convey("Then it falls back to one worker per CPU", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When several workers share the queue", func() {
			pool := worker.NewPool(4, q, proc)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const total = 40
			for i := 0; i < total; i++ {
				convey.So(q.Enqueue(ctx, roomEvent(fmt.Sprintf("event-%d", i))), convey.ShouldBeNil)
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then every event is processed exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				done := proc.done()
				convey.So(len(done), convey.ShouldEqual, total)

				unique := make(map[string]bool, len(done))
				for _, id := range done {
					unique[id] = true
				}
				convey.So(len(unique), convey.ShouldEqual, total)
			})

			convey.Convey("Then the queue is closed", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
