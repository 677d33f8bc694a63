// Package scheduler implements the multipath packet scheduler: given a
// connection's paths, per-path packet-number spaces, and stream data,
// it decides which path a single outbound packet should be sent on.
//
// The scheduler holds no locks, spawns no goroutines, and performs no
// I/O. It borrows views of its collaborators for the duration of a
// single Select or OnSent call and retains no long-lived references —
// in particular it never stores a pointer back to the connection.
package scheduler

import "time"

// PathInfo is the scheduler's read view of a single path, as reported
// by a PathView for the duration of one Select/OnSent call.
type PathInfo struct {
	ID            int
	Active        bool
	Validated     bool
	DCIDAvailable bool
	Primary       bool
	SRTT          time.Duration
	InitialRTT    time.Duration
	CWnd          uint64
	InFlight      uint64
}

// EffectiveSRTT returns SRTT, substituting InitialRTT when SRTT has
// never been measured (zero), so a newly validated path participates in
// ranking immediately instead of starving behind established paths.
func (p PathInfo) EffectiveSRTT() time.Duration {
	if p.SRTT == 0 {
		return p.InitialRTT
	}
	return p.SRTT
}

// Headroom is the number of bytes of congestion window available above
// bytes currently in flight. May be negative; the scheduler does not
// enforce CWnd >= InFlight, it only reads the values.
func (p PathInfo) Headroom() int64 {
	return int64(p.CWnd) - int64(p.InFlight)
}

// PathView is the scheduler's accessor over the set of paths known to
// the connection: iteration, lookup by id, and active/validated/RTT/cwnd
// queries. It holds no last-selected state; MinRTT keeps that itself.
type PathView interface {
	// Paths returns every path currently known to the connection.
	Paths() []PathInfo

	// Path looks up a single path by id.
	Path(id int) (PathInfo, bool)
}

// SpaceView is the scheduler's accessor over per-path packet-number
// spaces: whether a space has a frame ready to pack.
type SpaceView interface {
	HasSendable(pathID int) bool
}

// ByteRange identifies a span of bytes on a stream, for reinjection.
type ByteRange struct {
	Offset uint64
	Length uint64
}

// StreamView is the scheduler's accessor over the stream layer: whether
// there is sendable stream data, and — for redundant scheduling — an
// append-only handle to the reinjection queue.
type StreamView interface {
	HasSendableData() bool
	EnqueueReinjection(streamID uint64, r ByteRange, originPathID int)
}

// StreamFrame describes one stream byte range carried by a serialized
// packet, as reported to OnSent.
type StreamFrame struct {
	StreamID uint64
	Range    ByteRange
}

// PacketInfo describes what the connection just finished serializing,
// passed to OnSent so strategies that need to react to payload content
// (redundant reinjection) do not need their own copy of the packet.
type PacketInfo struct {
	StreamFrames []StreamFrame
}

// Scheduler is the pluggable strategy for choosing which path carries
// the next outbound packet.
type Scheduler interface {
	// Select returns the id of the path the next outbound packet should
	// be sent on. Returns ErrNoPathAvailable when no path satisfies the
	// eligibility filter, or ErrDone when a redundant-mode burst has
	// returned every eligible path already.
	//
	// Select must not be called again for the same connection until the
	// matching OnSent (if any) has been delivered for the previous call;
	// the connection is responsible for this non-interleaving guarantee.
	Select(paths PathView, spaces SpaceView, streams StreamView) (pathID int, err error)

	// OnSent notifies the scheduler that packet has finished serializing
	// on pathID at wall-clock instant now. Side-effect only.
	OnSent(packet PacketInfo, now time.Time, pathID int, paths PathView, spaces SpaceView, streams StreamView)
}

// MinDatagram is the default minimum congestion-window headroom (in
// bytes) a path must have to be eligible for selection. Per the spec's
// open design question, this uses the conservative initial-MTU floor
// rather than the connection's configured send payload size, since the
// scheduler has no such configuration input in this module — see
// DESIGN.md.
const MinDatagram = 1200

// eligible reports whether p satisfies the common eligibility filter
// shared by MinRTT and Redundant: active, validated, has a destination
// CID, and enough congestion-window headroom for at least one minimum
// datagram.
func eligible(p PathInfo, minDatagram int64) bool {
	return p.Active && p.Validated && p.DCIDAvailable && p.Headroom() >= minDatagram
}

// rank orders candidates by ascending effective SRTT, breaking ties in
// the order: primary path wins, then lastSelected wins, then lowest id
// wins. lastSelected may be -1 to mean "no preference".
func rank(candidates []PathInfo, lastSelected int) []PathInfo {
	out := make([]PathInfo, len(candidates))
	copy(out, candidates)

	less := func(a, b PathInfo) bool {
		as, bs := a.EffectiveSRTT(), b.EffectiveSRTT()
		if as != bs {
			return as < bs
		}
		if a.Primary != b.Primary {
			return a.Primary
		}
		if lastSelected >= 0 && (a.ID == lastSelected) != (b.ID == lastSelected) {
			return a.ID == lastSelected
		}
		return a.ID < b.ID
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	return out
}

func eligiblePaths(paths PathView, minDatagram int64) []PathInfo {
	all := paths.Paths()
	out := make([]PathInfo, 0, len(all))
	for _, p := range all {
		if eligible(p, minDatagram) {
			out = append(out, p)
		}
	}
	return out
}
