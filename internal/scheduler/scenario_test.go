package scheduler

import (
	"errors"
	"testing"
	"time"
)

// S1 — Single path, MinRTT.
func TestScenarioS1SinglePathMinRTT(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.setPath(0, func(p *PathInfo) { p.SRTT = 200 * time.Millisecond })

	sched, err := Build(MinRTT, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	id, err := sched.Select(f, f, f)
	if err != nil || id != 0 {
		t.Fatalf("first Select = (%d, %v), want (0, nil)", id, err)
	}

	sched.OnSent(PacketInfo{}, fixedNow, 0, f, f, f)

	id, err = sched.Select(f, f, f)
	if err != nil || id != 0 {
		t.Fatalf("second Select = (%d, %v), want (0, nil)", id, err)
	}
}

// S2 — Two paths, MinRTT picks faster.
func TestScenarioS2TwoPathsPicksFaster(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.setPath(0, func(p *PathInfo) { p.SRTT = 200 * time.Millisecond })
	f.addPath(PathInfo{Active: true, Validated: true, DCIDAvailable: true, CWnd: 14600, SRTT: 50 * time.Millisecond})

	sched, _ := Build(MinRTT, Config{})

	id, err := sched.Select(f, f, f)
	if err != nil || id != 1 {
		t.Fatalf("Select = (%d, %v), want (1, nil)", id, err)
	}
}

// S3 — MinRTT excludes congested path.
func TestScenarioS3ExcludesCongestedPath(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.setPath(0, func(p *PathInfo) {
		p.SRTT = 50 * time.Millisecond
		p.CWnd = 1200
		p.InFlight = 1200
	})
	f.addPath(PathInfo{Active: true, Validated: true, DCIDAvailable: true, CWnd: 14600, SRTT: 200 * time.Millisecond})

	sched, _ := Build(MinRTT, Config{})

	id, err := sched.Select(f, f, f)
	if err != nil || id != 1 {
		t.Fatalf("Select = (%d, %v), want (1, nil)", id, err)
	}
}

// S4 — MinRTT: no eligible path.
func TestScenarioS4NoEligiblePath(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.setPath(0, func(p *PathInfo) { p.Validated = false })

	sched, _ := Build(MinRTT, Config{})

	_, err := sched.Select(f, f, f)
	if !errors.Is(err, ErrNoPathAvailable) {
		t.Fatalf("Select error = %v, want ErrNoPathAvailable", err)
	}
}

// S5 — Redundant burst on two paths.
func TestScenarioS5RedundantBurst(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.setPath(0, func(p *PathInfo) { p.SRTT = 200 * time.Millisecond })
	f.addPath(PathInfo{Active: true, Validated: true, DCIDAvailable: true, CWnd: 14600, SRTT: 50 * time.Millisecond})

	sched, err := Build(Redundant, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	id, err := sched.Select(f, f, f)
	if err != nil || id != 1 {
		t.Fatalf("Select#1 = (%d, %v), want (1, nil)", id, err)
	}

	sched.OnSent(PacketInfo{StreamFrames: []StreamFrame{{StreamID: 4, Range: ByteRange{Offset: 0, Length: 10}}}}, fixedNow, 1, f, f, f)

	if len(f.reinjection) != 1 || f.reinjection[0].originPathID != 1 {
		t.Fatalf("reinjection after first on_sent = %+v, want one marker tagged origin=1", f.reinjection)
	}

	id, err = sched.Select(f, f, f)
	if err != nil || id != 0 {
		t.Fatalf("Select#2 = (%d, %v), want (0, nil)", id, err)
	}

	sched.OnSent(PacketInfo{}, fixedNow, 0, f, f, f)

	if _, err := sched.Select(f, f, f); !errors.Is(err, ErrDone) {
		t.Fatalf("Select#3 error = %v, want ErrDone", err)
	}
}

// S6 — Algorithm parsing.
func TestScenarioS6AlgorithmParsing(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"MinRtt", "MINRTT", "minrtt"} {
		algor, err := ParseAlgorithm(name)
		if err != nil || algor != MinRTT {
			t.Errorf("ParseAlgorithm(%q) = (%v, %v), want (MinRTT, nil)", name, algor, err)
		}
	}

	_, err := ParseAlgorithm("redun")
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) || invalid.Token != "unknown" {
		t.Errorf("ParseAlgorithm(%q) error = %v, want InvalidConfigError{Token: %q}", "redun", err, "unknown")
	}
}
