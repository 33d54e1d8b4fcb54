// Package ordering computes new Settings from check toggle and drag events.
// Apply is a pure function: it never mutates its input and reports whether
// anything changed so callers can skip redundant writes.
package ordering

import (
	"fmt"

	"shimwrapper-dashboard/catalog"
	"shimwrapper-dashboard/settings"
)

// Kind names an event.
type Kind string

const (
	KindToggle          Kind = "toggle"
	KindActivate        Kind = "activate"
	KindDeactivate      Kind = "deactivate"
	KindInsertAt        Kind = "insertAt"
	KindReturnToLibrary Kind = "returnToLibrary"
)

// Event is one user action against the check lists.
type Event struct {
	Kind  Kind   `json:"type"`
	ID    string `json:"id"`
	Value bool   `json:"value,omitempty"`
	Index int    `json:"index,omitempty"`
}

// Toggle sets the enabled flag without touching membership.
func Toggle(id string, v bool) Event { return Event{Kind: KindToggle, ID: id, Value: v} }

// Activate appends id to the active list.
func Activate(id string) Event { return Event{Kind: KindActivate, ID: id} }

// Deactivate removes id from the active list and switches it off.
func Deactivate(id string) Event { return Event{Kind: KindDeactivate, ID: id} }

// InsertAt places id before position index of the active list.
func InsertAt(id string, index int) Event { return Event{Kind: KindInsertAt, ID: id, Index: index} }

// ReturnToLibrary is Deactivate issued by a drop on the library.
func ReturnToLibrary(id string) Event { return Event{Kind: KindReturnToLibrary, ID: id} }

// Validate reports a malformed event. Unknown check ids are not an error.
func (e Event) Validate() error {
	switch e.Kind {
	case KindToggle, KindActivate, KindDeactivate, KindInsertAt, KindReturnToLibrary:
	default:
		return fmt.Errorf("ordering: unknown event type %q", e.Kind)
	}
	if e.ID == "" {
		return fmt.Errorf("ordering: event %q has no id", e.Kind)
	}
	return nil
}

// Apply returns the state after ev and whether it differs from cur. When
// nothing changes cur itself is returned. Ids missing from the catalog are
// ignored.
func Apply(cur settings.Settings, ev Event) (settings.Settings, bool) {
	if !catalog.Known(ev.ID) {
		return cur, false
	}
	switch ev.Kind {
	case KindToggle:
		return toggle(cur, ev.ID, ev.Value)
	case KindActivate:
		return activate(cur, ev.ID)
	case KindDeactivate, KindReturnToLibrary:
		return deactivate(cur, ev.ID)
	case KindInsertAt:
		return insertAt(cur, ev.ID, ev.Index)
	}
	return cur, false
}

func toggle(cur settings.Settings, id string, v bool) (settings.Settings, bool) {
	if cur.Enabled(id) == v {
		return cur, false
	}
	out := cur.Clone()
	out.CheckToggles[id] = v
	return out, true
}

func activate(cur settings.Settings, id string) (settings.Settings, bool) {
	if cur.IndexOf(id) >= 0 {
		return cur, false
	}
	out := cur.Clone()
	out.CheckOrder = append(out.CheckOrder, id)
	out.CheckToggles[id] = true
	return out, true
}

func deactivate(cur settings.Settings, id string) (settings.Settings, bool) {
	idx := cur.IndexOf(id)
	if idx < 0 {
		return cur, false
	}
	out := cur.Clone()
	out.CheckOrder = append(out.CheckOrder[:idx], out.CheckOrder[idx+1:]...)
	out.CheckToggles[id] = false
	return out, true
}

// insertAt places id before position index of the current order. For an id
// already in the order, index refers to the list before removal and is
// shifted down by one when the item moves forward, so it lands next to the
// neighbour the user dropped it on. A move onto its own position is a no-op.
func insertAt(cur settings.Settings, id string, index int) (settings.Settings, bool) {
	from := cur.IndexOf(id)
	if from < 0 {
		out := cur.Clone()
		at := clamp(index, 0, len(out.CheckOrder))
		out.CheckOrder = splice(out.CheckOrder, at, id)
		out.CheckToggles[id] = true
		return out, true
	}

	to := clamp(index, 0, len(cur.CheckOrder))
	if from < to {
		to--
	}
	if to == from {
		return cur, false
	}
	out := cur.Clone()
	rest := append(out.CheckOrder[:from:from], out.CheckOrder[from+1:]...)
	out.CheckOrder = splice(rest, to, id)
	return out, true
}

func splice(order []string, at int, id string) []string {
	out := make([]string, 0, len(order)+1)
	out = append(out, order[:at]...)
	out = append(out, id)
	return append(out, order[at:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
