// Package connloop drives the multipath scheduler from a connection's
// send loop: on every wake-up it asks the scheduler for a path, hands
// the datagram off to a PacketSink, and reports the outcome back via
// OnSent, exactly once per selected path per wake-up cycle.
package connloop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mpsched/mpsched/internal/pathtable"
	"github.com/mpsched/mpsched/internal/pnspace"
	"github.com/mpsched/mpsched/internal/schedmetrics"
	"github.com/mpsched/mpsched/internal/scheduler"
	"github.com/mpsched/mpsched/internal/streammap"
)

// PacketSink serializes and transmits one datagram on pathID. It is the
// connloop analogue of the teacher's bfd.PacketSender: the only
// collaborator that actually performs I/O. Returns the stream frames
// that were packed, so the scheduler's OnSent can react to payload
// content (the redundant strategy's reinjection).
type PacketSink interface {
	SendDatagram(ctx context.Context, pathID int) (scheduler.PacketInfo, error)
}

// Conn ties a scheduler strategy to its three collaborator views and a
// packet sink, and runs the single-threaded cooperative send loop the
// scheduler is specified to be driven from. Conn owns the Table/Map
// locks; the scheduler itself remains lock-free.
type Conn struct {
	Paths   *pathtable.Table
	Spaces  *pnspace.Map
	Streams *streammap.Map

	sched               scheduler.Scheduler
	algorName           string
	reinjectionRequired bool
	sink                PacketSink
	metrics             *schedmetrics.Collector
	logger              *slog.Logger
}

// New constructs a Conn. metrics and logger may be nil; metrics then
// records nothing and logger defaults to slog.Default(). algorName
// identifies the running strategy (scheduler.Algorithm.String()) and
// decides whether RunOnce drains a burst to exhaustion.
func New(
	sched scheduler.Scheduler,
	algorName string,
	paths *pathtable.Table,
	spaces *pnspace.Map,
	streams *streammap.Map,
	sink PacketSink,
	metrics *schedmetrics.Collector,
	logger *slog.Logger,
) *Conn {
	if logger == nil {
		logger = slog.Default()
	}

	var reinjectionRequired bool
	if algor, err := scheduler.ParseAlgorithm(algorName); err == nil {
		reinjectionRequired = scheduler.ReinjectionRequired(algor)
	}

	return &Conn{
		Paths:               paths,
		Spaces:              spaces,
		Streams:             streams,
		sched:               sched,
		algorName:           algorName,
		reinjectionRequired: reinjectionRequired,
		sink:                sink,
		metrics:             metrics,
		logger:              logger.With(slog.String("component", "connloop")),
	}
}

// pathView adapts *pathtable.Table to scheduler.PathView.
type pathView struct{ t *pathtable.Table }

func (v pathView) Paths() []scheduler.PathInfo {
	snap := v.t.Snapshot()
	out := make([]scheduler.PathInfo, len(snap))
	for i, p := range snap {
		out[i] = toPathInfo(p)
	}
	return out
}

func (v pathView) Path(id int) (scheduler.PathInfo, bool) {
	p, ok := v.t.Get(id)
	if !ok {
		return scheduler.PathInfo{}, false
	}
	return toPathInfo(p), true
}

func toPathInfo(p pathtable.Path) scheduler.PathInfo {
	return scheduler.PathInfo{
		ID:            p.ID,
		Active:        p.Active,
		Validated:     p.Validation == pathtable.Validated,
		DCIDAvailable: p.DCIDAvailable,
		Primary:       p.Primary,
		SRTT:          p.SRTT,
		InitialRTT:    p.InitialRTT,
		CWnd:          p.CWnd,
		InFlight:      p.InFlight,
	}
}

// spaceView adapts *pnspace.Map to scheduler.SpaceView.
type spaceView struct{ m *pnspace.Map }

func (v spaceView) HasSendable(pathID int) bool { return v.m.HasSendable(pathID) }

// streamView adapts *streammap.Map to scheduler.StreamView.
type streamView struct {
	m       *streammap.Map
	metrics *schedmetrics.Collector
}

func (v streamView) HasSendableData() bool { return v.m.HasSendableData() }

func (v streamView) EnqueueReinjection(streamID uint64, r scheduler.ByteRange, originPathID int) {
	v.m.EnqueueReinjection(streamID, streammap.ByteRange{Offset: r.Offset, Length: r.Length}, originPathID)
	if v.metrics != nil {
		v.metrics.RecordReinjection(originPathID)
	}
}

// RunOnce packs datagrams for the current wake-up.
//
// Redundant mode drains a whole burst: the scheduler returns every
// eligible path once and then reports ErrDone, so the loop runs until
// that sentinel (or ErrNoPathAvailable) appears. MinRTT never produces
// ErrDone — a path stays eligible until its congestion state or
// activity changes, which this loop has no way to observe on its own —
// so for any non-reinjecting strategy RunOnce packs exactly one
// datagram per call and returns; the caller's wake cadence (Run's wake
// channel, or cmd/schedulerd's ticker) decides whether to invoke RunOnce
// again. streams.HasSendableData is not consulted.
func (c *Conn) RunOnce(ctx context.Context) (int, error) {
	pv := pathView{c.Paths}
	sv := spaceView{c.Spaces}
	tv := streamView{c.Streams, c.metrics}

	sent := 0
	for {
		pathID, err := c.sched.Select(pv, sv, tv)
		switch {
		case errors.Is(err, scheduler.ErrDone):
			return sent, nil
		case errors.Is(err, scheduler.ErrNoPathAvailable):
			c.logger.Debug("no path available")
			if c.metrics != nil {
				c.metrics.RecordNoPathAvailable(c.algorName)
			}
			return sent, nil
		case err != nil:
			return sent, err
		}

		packet, sendErr := c.sink.SendDatagram(ctx, pathID)
		now := time.Now()
		c.sched.OnSent(packet, now, pathID, pv, sv, tv)

		if sendErr != nil {
			c.logger.Warn("send datagram failed", slog.Int("path_id", pathID), slog.String("error", sendErr.Error()))
			return sent, sendErr
		}

		if c.metrics != nil {
			c.metrics.RecordSelection(pathID, c.algorName)
		}
		sent++

		if !c.reinjectionRequired {
			return sent, nil
		}
	}
}

// Run drives RunOnce every time wake fires, until ctx is cancelled.
// wake models the connection's event poller (I/O readiness, timer
// expiry) that the spec describes as the caller of Select; connloop
// does not implement that poller itself.
func (c *Conn) Run(ctx context.Context, wake <-chan struct{}) error {
	c.logger.Info("connection loop started", slog.String("algorithm", c.algorName))
	defer c.logger.Info("connection loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
			if _, err := c.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}
