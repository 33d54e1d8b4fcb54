// Package dropzone resolves which drop target a drag is over. It works on
// plain rectangles and returns abstract target identifiers only.
package dropzone

import (
	"math"
	"strconv"
)

// Kind classifies a drop target.
type Kind string

const (
	// KindLibrary is the container of inactive checks.
	KindLibrary Kind = "library"
	// KindContainer is the whole active-list container.
	KindContainer Kind = "active"
	// KindSlot is the gap before active item Index (Index == len means after the last).
	KindSlot Kind = "slot"
	// KindItem is the rectangle of active item Index.
	KindItem Kind = "item"
)

// Point is a pointer position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Left+r.Width &&
		p.Y >= r.Top && p.Y <= r.Top+r.Height
}

// CenterY is the vertical center of r.
func (r Rect) CenterY() float64 {
	return r.Top + r.Height/2
}

// Target is one droppable region.
type Target struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Index int    `json:"index,omitempty"`
	Rect  Rect   `json:"rect"`
}

// kindRank orders plain containment matches; lower wins.
var kindRank = map[Kind]int{
	KindSlot:    0,
	KindItem:    1,
	KindLibrary: 2,
}

// Resolve picks exactly one target for pointer p.
//
// Inside the active container only slots compete, and the slot whose
// vertical center is nearest to p wins; with no slots the container itself
// is the target. Outside it, targets containing p are ranked slot, item,
// library. Ties keep input order.
func Resolve(p Point, targets []Target) (Target, bool) {
	for _, c := range targets {
		if c.Kind != KindContainer || !c.Rect.Contains(p) {
			continue
		}
		best, found := Target{}, false
		bestDist := math.Inf(1)
		for _, t := range targets {
			if t.Kind != KindSlot {
				continue
			}
			if d := math.Abs(t.Rect.CenterY() - p.Y); d < bestDist {
				best, bestDist, found = t, d, true
			}
		}
		if !found {
			return c, true
		}
		return best, true
	}

	best, found := Target{}, false
	for _, t := range targets {
		rank, ok := kindRank[t.Kind]
		if !ok || !t.Rect.Contains(p) {
			continue
		}
		if !found || rank < kindRank[best.Kind] {
			best, found = t, true
		}
	}
	return best, found
}

// Slots builds the between-slot targets for a vertical list of item
// rectangles: one before each item and one after the last, each spanning the
// container width and gap pixels high, centered on the boundary.
func Slots(container Rect, items []Rect, gap float64) []Target {
	out := make([]Target, 0, len(items)+1)
	for i := 0; i <= len(items); i++ {
		var y float64
		switch {
		case len(items) == 0:
			y = container.CenterY()
		case i == len(items):
			last := items[i-1]
			y = last.Top + last.Height
		default:
			y = items[i].Top
		}
		out = append(out, Target{
			ID:    slotID(i),
			Kind:  KindSlot,
			Index: i,
			Rect:  Rect{Left: container.Left, Top: y - gap/2, Width: container.Width, Height: gap},
		})
	}
	return out
}

func slotID(i int) string {
	return "slot-" + strconv.Itoa(i)
}
