package pathtable

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnknownPath is returned by mutators given an id with no matching path.
var ErrUnknownPath = errors.New("pathtable: unknown path id")

// ErrPrimaryRequired reports that a table has no primary path (id 0).
// AddPath never returns it: the first path added to a table always
// becomes the primary path with id 0.
var ErrPrimaryRequired = errors.New("pathtable: primary path (id 0) must be added first")

// Table is the connection's read/write table of paths, shared by the
// send loop and the scheduler for the duration of a single select/on_sent
// call. Safe for concurrent use: readers (the scheduler's views) take a
// read lock, mutators (path lifecycle events from the connection) take a
// write lock, mirroring bfd.Manager's locking discipline.
type Table struct {
	mu    sync.RWMutex
	paths map[int]*Path
	next  int

	// generation increments on any mutation that can change eligibility
	// or ranking (Active, Validation, SRTT, DCIDAvailable, CWnd,
	// InFlight), and on AddPath/RemovePath. The scheduler strategies do
	// not read it; MinRTT detects ranking changes with its own fingerprint.
	generation uint64
}

// NewTable returns an empty path table.
func NewTable() *Table {
	return &Table{paths: make(map[int]*Path)}
}

// AddPath inserts a new path and returns its allocated id. The first path
// added to a table becomes the primary path and is always assigned id 0,
// per the invariant that the primary path always exists and has id 0.
func (t *Table) AddPath(p Path) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	p.ID = id
	if id == 0 {
		p.Primary = true
	}
	t.paths[id] = &p
	t.next++
	t.generation++

	return id
}

// RemovePath deletes a path from the table. Removing the primary path is
// permitted by this type (the connection is responsible for the
// primary-path invariant at a higher level); the scheduler never calls
// this itself, per spec: it never mutates path lifecycle.
func (t *Table) RemovePath(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.paths[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}
	delete(t.paths, id)
	t.generation++

	return nil
}

// Get returns a copy of the path record for id.
func (t *Table) Get(id int) (Path, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.paths[id]
	if !ok {
		return Path{}, false
	}
	return *p, true
}

// Snapshot returns a copy of all paths, ordered by id.
func (t *Table) Snapshot() []Path {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Path, 0, len(t.paths))
	for _, p := range t.paths {
		out = append(out, *p)
	}
	sortPathsByID(out)

	return out
}

// Generation returns the current mutation counter, so callers can tell
// cheaply whether the table changed since they last looked.
func (t *Table) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.generation
}

// SetActive updates a path's active flag.
func (t *Table) SetActive(id int, active bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.paths[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}
	if p.Active != active {
		p.Active = active
		t.generation++
	}

	return nil
}

// SetDCIDAvailable updates whether a destination connection id has been
// assigned to the path.
func (t *Table) SetDCIDAvailable(id int, available bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.paths[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}
	if p.DCIDAvailable != available {
		p.DCIDAvailable = available
		t.generation++
	}

	return nil
}

// SetSRTT updates a path's smoothed RTT measurement.
func (t *Table) SetSRTT(id int, srtt time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.paths[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}
	p.SRTT = srtt
	t.generation++

	return nil
}

// SetCongestion updates a path's congestion window and in-flight bytes,
// as reported by the (external) congestion controller.
func (t *Table) SetCongestion(id int, cwnd, inFlight uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.paths[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}
	p.CWnd = cwnd
	p.InFlight = inFlight
	t.generation++

	return nil
}

// ApplyValidationEvent runs the validation state machine for path id and
// stores the result. Returns the FSM result so callers can react to
// Changed (e.g. invalidate a scheduler's cached ranking) without a second
// table lookup.
func (t *Table) ApplyValidationEvent(id int, event Event) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.paths[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}

	result := ApplyEvent(p.Validation, event)
	if result.Changed {
		p.Validation = result.NewState
		t.generation++
	}

	return result, nil
}

func sortPathsByID(paths []Path) {
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && paths[j].ID < paths[j-1].ID; j-- {
			paths[j], paths[j-1] = paths[j-1], paths[j]
		}
	}
}
