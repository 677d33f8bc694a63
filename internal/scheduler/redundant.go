package scheduler

import "time"

// redundantScheduler implements the Redundant strategy: within a single
// send burst, returns every eligible path once (SRTT-ordered), so the
// connection duplicates the outbound payload across all of them.
type redundantScheduler struct {
	cfg Config

	// cursor holds the remaining eligible paths for the current burst,
	// in selection order. nil means no burst is in progress; a new
	// burst starts on the next Select call.
	cursor []PathInfo
}

func newRedundantScheduler(cfg Config) *redundantScheduler {
	return &redundantScheduler{cfg: cfg}
}

func (s *redundantScheduler) Select(paths PathView, spaces SpaceView, streams StreamView) (int, error) {
	if s.cursor == nil {
		candidates := eligiblePaths(paths, s.cfg.minDatagram())
		if len(candidates) == 0 {
			return 0, ErrNoPathAvailable
		}
		s.cursor = rank(candidates, -1)
	}

	if len(s.cursor) == 0 {
		// Burst fully drained; reset for the next one and report Done.
		s.cursor = nil
		return 0, ErrDone
	}

	next := s.cursor[0]
	s.cursor = s.cursor[1:]

	return next.ID, nil
}

func (s *redundantScheduler) OnSent(packet PacketInfo, _ time.Time, pathID int, _ PathView, _ SpaceView, streams StreamView) {
	// More paths remain in this burst: offer the just-sent stream
	// ranges again so the next path in the cursor carries the same
	// payload.
	if len(s.cursor) == 0 {
		return
	}

	for _, frame := range packet.StreamFrames {
		streams.EnqueueReinjection(frame.StreamID, frame.Range, pathID)
	}
}
