// Package streammap is the scheduler's view over the stream layer: the
// "has sendable data" predicate, and — for redundant scheduling — the
// reinjection queue that lets one path's byte range be offered again on
// another path.
package streammap

import "sync"

// ByteRange identifies a span of bytes on a stream.
type ByteRange struct {
	Offset uint64
	Length uint64
}

// ReinjectionMarker records that a stream byte range originally sent on
// OriginPathID should be offered again on a different path.
type ReinjectionMarker struct {
	StreamID     uint64
	Range        ByteRange
	OriginPathID int
}

// Map is the stream layer's scheduler-facing surface: whether there is
// sendable stream data, plus an append-only reinjection queue the
// scheduler writes to and the packer drains. Conceptually owned by the
// stream layer; the scheduler only holds a producer handle.
type Map struct {
	mu          sync.Mutex
	sendable    bool
	reinjection []ReinjectionMarker
}

// NewMap returns an empty stream map with no sendable data.
func NewMap() *Map {
	return &Map{}
}

// HasSendableData reports whether any stream currently has data ready
// to be packed, independent of which path it is eventually sent on.
func (m *Map) HasSendableData() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sendable
}

// SetSendableData updates the has-sendable-data predicate. Called by the
// connection's stream layer as data is buffered and drained.
func (m *Map) SetSendableData(sendable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sendable = sendable
}

// EnqueueReinjection appends a marker so the stream layer offers range
// again on a path other than origin. Used only by the redundant
// strategy; never blocks, never fails (an append-only in-memory queue),
// matching the spec's "reinjection enqueue failures ... logged" note —
// this implementation has no failure mode to log.
func (m *Map) EnqueueReinjection(streamID uint64, r ByteRange, originPathID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reinjection = append(m.reinjection, ReinjectionMarker{
		StreamID:     streamID,
		Range:        r,
		OriginPathID: originPathID,
	})
}

// DrainReinjections removes and returns all queued reinjection markers,
// in enqueue order. Called by the packer.
func (m *Map) DrainReinjections() []ReinjectionMarker {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.reinjection
	m.reinjection = nil

	return out
}

// PendingReinjections returns the number of queued but undrained
// reinjection markers, for metrics and tests.
func (m *Map) PendingReinjections() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.reinjection)
}
