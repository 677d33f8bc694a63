package connloop_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mpsched/mpsched/internal/connloop"
	"github.com/mpsched/mpsched/internal/pathtable"
	"github.com/mpsched/mpsched/internal/pnspace"
	"github.com/mpsched/mpsched/internal/scheduler"
	"github.com/mpsched/mpsched/internal/streammap"
)

type countingSink struct {
	sent atomic.Int64
}

func (s *countingSink) SendDatagram(context.Context, int) (scheduler.PacketInfo, error) {
	s.sent.Add(1)
	return scheduler.PacketInfo{}, nil
}

func newTestConn(t *testing.T, algor scheduler.Algorithm, sink connloop.PacketSink) (*connloop.Conn, *pathtable.Table) {
	t.Helper()

	paths := pathtable.NewTable()
	paths.AddPath(pathtable.Path{Active: true, Validation: pathtable.Validated, DCIDAvailable: true, CWnd: 14600})

	spaces := pnspace.NewMap()
	streams := streammap.NewMap()

	sched, err := scheduler.Build(algor, scheduler.Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	conn := connloop.New(sched, algor.String(), paths, spaces, streams, sink, nil, nil)
	return conn, paths
}

func TestRunOnceMinRTTSendsOneDatagramPerWake(t *testing.T) {
	t.Parallel()

	sink := &countingSink{}
	conn, _ := newTestConn(t, scheduler.MinRTT, sink)

	sent, err := conn.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 1 {
		t.Fatalf("RunOnce sent = %d, want 1", sent)
	}
	if sink.sent.Load() != 1 {
		t.Fatalf("sink received %d datagrams, want 1", sink.sent.Load())
	}
}

func TestRunOnceMinRTTIgnoresStreamSendability(t *testing.T) {
	t.Parallel()

	sink := &countingSink{}
	conn, _ := newTestConn(t, scheduler.MinRTT, sink)

	streams := streammap.NewMap()
	streams.SetSendableData(true)
	conn.Streams = streams

	// A path that stays eligible forever never yields ErrDone, so a
	// non-reinjecting strategy must not let stream sendability keep
	// RunOnce looping internally: repeated calls each send exactly one
	// datagram, and it is the caller's wake cadence that decides whether
	// to call again.
	for i := 0; i < 3; i++ {
		sent, err := conn.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
		if sent != 1 {
			t.Fatalf("RunOnce call %d sent = %d, want 1", i, sent)
		}
	}

	if sink.sent.Load() != 3 {
		t.Fatalf("sink received %d datagrams across 3 RunOnce calls, want 3", sink.sent.Load())
	}
}

func TestRunOnceRedundantBurstDrainsAllPaths(t *testing.T) {
	t.Parallel()

	sink := &countingSink{}
	conn, paths := newTestConn(t, scheduler.Redundant, sink)
	paths.AddPath(pathtable.Path{Active: true, Validation: pathtable.Validated, DCIDAvailable: true, CWnd: 14600})

	sent, err := conn.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 2 {
		t.Fatalf("RunOnce sent = %d, want 2 (one per eligible path)", sent)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	sink := &countingSink{}
	conn, _ := newTestConn(t, scheduler.MinRTT, sink)

	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- conn.Run(ctx, wake)
	}()

	wake <- struct{}{}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
