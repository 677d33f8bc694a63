package scheduler

import "time"

// minRTTScheduler implements the MinRTT strategy: always picks the
// validated, active, eligible path with the lowest smoothed RTT.
type minRTTScheduler struct {
	cfg Config

	// lastSelected is the path id chosen by the previous successful
	// Select, used as a hysteresis tie-break. -1 means no prior
	// selection.
	lastSelected int

	// cachedFingerprint and cachedRanking implement the "ranking cache
	// invalidated whenever any path's SRTT or active flag changes"
	// behaviour from the spec design notes: the ranking is recomputed
	// only when the relevant path fields differ from the previous call.
	cachedFingerprint string
	cachedRanking     []PathInfo
}

func newMinRTTScheduler(cfg Config) *minRTTScheduler {
	return &minRTTScheduler{cfg: cfg, lastSelected: -1}
}

func (s *minRTTScheduler) Select(paths PathView, spaces SpaceView, streams StreamView) (int, error) {
	candidates := eligiblePaths(paths, s.cfg.minDatagram())
	if len(candidates) == 0 {
		return 0, ErrNoPathAvailable
	}

	fp := fingerprint(candidates)
	if fp == s.cachedFingerprint && s.cachedRanking != nil {
		s.lastSelected = s.cachedRanking[0].ID
		return s.lastSelected, nil
	}

	ranked := rank(candidates, s.lastSelected)
	s.cachedFingerprint = fp
	s.cachedRanking = ranked
	s.lastSelected = ranked[0].ID

	return s.lastSelected, nil
}

func (s *minRTTScheduler) OnSent(_ PacketInfo, _ time.Time, pathID int, _ PathView, _ SpaceView, _ StreamView) {
	s.lastSelected = pathID
	// A ranking computed for a stale lastSelected tie-break is no longer
	// authoritative; force recomputation on the next Select.
	s.cachedFingerprint = ""
	s.cachedRanking = nil
}

// fingerprint produces a cheap string summary of the path fields that
// affect ranking, so the scheduler can detect "nothing relevant
// changed" between calls without needing a change-notification hook
// from PathView.
func fingerprint(paths []PathInfo) string {
	buf := make([]byte, 0, len(paths)*32)
	for _, p := range paths {
		buf = appendInt(buf, p.ID)
		buf = append(buf, ':')
		buf = appendInt(buf, int(p.EffectiveSRTT()))
		buf = append(buf, ':')
		if p.Primary {
			buf = append(buf, 'P')
		}
		buf = append(buf, ';')
	}
	return string(buf)
}

func appendInt(buf []byte, v int) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	if v < 0 {
		buf = append(buf, '-')
		v = -v
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}
