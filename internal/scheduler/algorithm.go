package scheduler

import "strings"

// Algorithm names a scheduling strategy.
type Algorithm uint8

const (
	// MinRTT routes each packet over the fastest validated path with
	// congestion-window headroom.
	MinRTT Algorithm = iota

	// Redundant duplicates outbound payload across every eligible path.
	Redundant
)

// String returns the canonical lowercase name of the algorithm, the
// inverse of ParseAlgorithm.
func (a Algorithm) String() string {
	switch a {
	case MinRTT:
		return "minrtt"
	case Redundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// ParseAlgorithm parses a case-insensitive algorithm name. Returns
// InvalidConfigError for any string other than "minrtt" or "redundant".
// The error always carries the token "unknown", not the rejected string:
// the original multipath_scheduler parser does the same, and callers
// that want the offending input should log it themselves.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "minrtt":
		return MinRTT, nil
	case "redundant":
		return Redundant, nil
	default:
		return 0, &InvalidConfigError{Token: "unknown"}
	}
}

// ReinjectionRequired reports whether a given algorithm requires the
// loss detector to dedupe acknowledgements across paths. True only for
// Redundant, since MinRTT never sends the same payload twice.
func ReinjectionRequired(algor Algorithm) bool {
	return algor == Redundant
}

// Config configures a scheduler strategy at construction time.
type Config struct {
	// MinDatagram overrides the minimum congestion-window headroom (in
	// bytes) required for a path to be eligible. Zero means use the
	// package default (MinDatagram).
	MinDatagram int64
}

func (c Config) minDatagram() int64 {
	if c.MinDatagram > 0 {
		return c.MinDatagram
	}
	return MinDatagram
}

// Build constructs the Scheduler strategy named by algor.
func Build(algor Algorithm, cfg Config) (Scheduler, error) {
	switch algor {
	case MinRTT:
		return newMinRTTScheduler(cfg), nil
	case Redundant:
		return newRedundantScheduler(cfg), nil
	default:
		return nil, &InvalidConfigError{Token: algor.String()}
	}
}
