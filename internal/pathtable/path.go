package pathtable

import (
	"net/netip"
	"time"
)

// Path is a single network path a connection may send datagrams over.
// Identified by a stable integer id; id 0 is always the primary path.
type Path struct {
	ID         int
	Local      netip.AddrPort
	Remote     netip.AddrPort
	Validation ValidationState
	Active     bool
	Primary    bool

	// DCIDAvailable reports whether a destination connection id has been
	// assigned to this path by the peer.
	DCIDAvailable bool

	// SRTT is the smoothed round-trip time. Zero means "never measured";
	// callers should substitute InitialRTT in ranking computations.
	SRTT time.Duration

	// InitialRTT is the configured RTT estimate used while SRTT is zero.
	InitialRTT time.Duration

	// CWnd and InFlight are congestion-control outputs, read-only inputs
	// to the scheduler's eligibility filter.
	CWnd     uint64
	InFlight uint64
}

// EffectiveSRTT returns SRTT, or InitialRTT if SRTT has never been
// measured. Spec edge case: a newly validated path with SRTT==0 must
// participate in ranking immediately rather than starving.
func (p Path) EffectiveSRTT() time.Duration {
	if p.SRTT == 0 {
		return p.InitialRTT
	}
	return p.SRTT
}

// Headroom returns the number of bytes this path's congestion window
// has available above bytes currently in flight. May be negative if
// InFlight exceeds CWnd (the scheduler does not enforce that invariant;
// it only reads it).
func (p Path) Headroom() int64 {
	return int64(p.CWnd) - int64(p.InFlight)
}
