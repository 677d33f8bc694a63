package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// pathSnapshot mirrors statusserver.PathSnapshot's JSON shape.
type pathSnapshot struct {
	ID            int    `json:"id"`
	Validation    string `json:"validation"`
	Active        bool   `json:"active"`
	Primary       bool   `json:"primary"`
	DCIDAvailable bool   `json:"dcid_available"`
	SRTTMillis    int64  `json:"srtt_millis"`
	CWnd          uint64 `json:"cwnd"`
	InFlight      uint64 `json:"in_flight"`
}

// schedulerSnapshot mirrors statusserver.SchedulerSnapshot's JSON shape.
type schedulerSnapshot struct {
	Algorithm           string `json:"algorithm"`
	ReinjectionRequired bool   `json:"reinjection_required"`
	PathCount           int    `json:"path_count"`
}

func formatPaths(paths []pathSnapshot, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(paths, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal paths to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		return formatPathsTable(paths), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatPathsTable(paths []pathSnapshot) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVALIDATION\tACTIVE\tPRIMARY\tDCID\tSRTT(ms)\tCWND\tIN-FLIGHT")

	for _, p := range paths {
		fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%t\t%d\t%d\t%d\n",
			p.ID, p.Validation, p.Active, p.Primary, p.DCIDAvailable,
			p.SRTTMillis, p.CWnd, p.InFlight,
		)
	}

	_ = w.Flush()
	return buf.String()
}

func formatScheduler(s schedulerSnapshot, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal scheduler state to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Algorithm:\t%s\n", s.Algorithm)
		fmt.Fprintf(w, "Reinjection Required:\t%t\n", s.ReinjectionRequired)
		fmt.Fprintf(w, "Path Count:\t%d\n", s.PathCount)
		_ = w.Flush()
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}
