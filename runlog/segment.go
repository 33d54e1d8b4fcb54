// Package runlog splits combined runner output into per-check sections and
// reads and writes the last-run record.
package runlog

import (
	"strings"

	"shimwrapper-dashboard/catalog"
)

// Markers maps check ids to the literal fragments the runner prints right
// before that check's output. Matching follows slice order.
type Markers []catalog.MarkerSet

// DefaultMarkers are the markers declared in the check catalog.
func DefaultMarkers() Markers {
	return Markers(catalog.Markers())
}

// match returns the check id whose marker occurs in line.
func (m Markers) match(line string) (string, bool) {
	for _, set := range m {
		for _, marker := range set.Markers {
			if marker != "" && strings.Contains(line, marker) {
				return set.CheckID, true
			}
		}
	}
	return "", false
}

// Segment splits text into one block per check. A block starts at the line
// carrying a marker (included) and runs until the next marker line. Lines
// before the first marker are dropped. If a check appears more than once,
// its last block wins. Blank blocks are omitted.
func Segment(text string, markers Markers) map[string]string {
	out := make(map[string]string)
	var (
		current string
		block   []string
	)
	flush := func() {
		if current == "" {
			return
		}
		if seg := strings.TrimSpace(strings.Join(block, "\n")); seg != "" {
			out[current] = seg
		}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if id, ok := markers.match(line); ok {
			flush()
			current = id
			block = block[:0]
		}
		if current != "" {
			block = append(block, line)
		}
	}
	flush()
	return out
}
