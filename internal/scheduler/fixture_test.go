package scheduler

import "time"

// fixture is a small in-memory PathView/SpaceView/StreamView test
// harness, grounded on the original multipath_scheduler.rs test
// module's MultipathTester: a primary path exists by default, and
// addPath inserts further paths with a configurable initial RTT.
type fixture struct {
	paths       []PathInfo
	nextID      int
	sendable    bool
	reinjection []reinjectionCall
}

type reinjectionCall struct {
	streamID     uint64
	r            ByteRange
	originPathID int
}

func newFixture() *fixture {
	f := &fixture{}
	f.paths = append(f.paths, PathInfo{
		ID:            0,
		Active:        true,
		Validated:     true,
		DCIDAvailable: true,
		Primary:       true,
		CWnd:          14600,
	})
	f.nextID = 1
	return f
}

func (f *fixture) addPath(p PathInfo) int {
	id := f.nextID
	p.ID = id
	f.nextID++
	f.paths = append(f.paths, p)
	return id
}

func (f *fixture) setPath(id int, mutate func(*PathInfo)) {
	for i := range f.paths {
		if f.paths[i].ID == id {
			mutate(&f.paths[i])
			return
		}
	}
}

func (f *fixture) Paths() []PathInfo {
	out := make([]PathInfo, len(f.paths))
	copy(out, f.paths)
	return out
}

func (f *fixture) Path(id int) (PathInfo, bool) {
	for _, p := range f.paths {
		if p.ID == id {
			return p, true
		}
	}
	return PathInfo{}, false
}

func (f *fixture) HasSendable(int) bool { return f.sendable }

func (f *fixture) HasSendableData() bool { return f.sendable }

func (f *fixture) EnqueueReinjection(streamID uint64, r ByteRange, originPathID int) {
	f.reinjection = append(f.reinjection, reinjectionCall{streamID, r, originPathID})
}

var fixedNow = time.Unix(0, 0) //nolint:gochecknoglobals // deterministic test-only clock
