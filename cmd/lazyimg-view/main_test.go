package main

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerRunsQueuedWork(t *testing.T) {
	v := newViewer(quietLogger())
	go v.run()
	defer v.shutdown()

	ran := make(chan struct{})
	v.queue(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("queued work did not run")
	}
}

func TestQueueAfterShutdownIsDropped(t *testing.T) {
	v := newViewer(quietLogger())
	go v.run()
	v.shutdown()

	for i := 0; i < 32; i++ {
		v.queue(func() { t.Error("work ran after shutdown") })
	}
	select {
	case <-v.done:
	default:
		t.Error("worker still running after shutdown")
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	v := newViewer(quietLogger())
	for i := 0; i < cap(v.work)+4; i++ {
		v.queue(func() {})
	}
	if len(v.work) != cap(v.work) {
		t.Errorf("queued %d, want %d", len(v.work), cap(v.work))
	}
}
