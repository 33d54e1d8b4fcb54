package ordering

import (
	"shimwrapper-dashboard/dropzone"
	"shimwrapper-dashboard/settings"
)

// List names the list a drag started in.
type List string

const (
	ListLibrary List = "library"
	ListActive  List = "active"
)

// DragPayload travels with one drag gesture. It is never persisted.
type DragPayload struct {
	SourceID          string `json:"sourceId"`
	Origin            List   `json:"originList"`
	CurrentOrderIndex *int   `json:"currentOrderIndex,omitempty"`
}

// EventForDrop translates the end of a drag over target into an event.
// It reports false when the drop means nothing, for example a library item
// dropped back on the library, or when the payload no longer matches cur.
func EventForDrop(cur settings.Settings, p DragPayload, target dropzone.Target) (Event, bool) {
	from := cur.IndexOf(p.SourceID)
	if p.Origin == ListActive && (from < 0 || (p.CurrentOrderIndex != nil && *p.CurrentOrderIndex != from)) {
		return Event{}, false
	}
	if p.Origin == ListLibrary && from >= 0 {
		// already active: treat the gesture as a reorder
		p.Origin = ListActive
	}

	switch target.Kind {
	case dropzone.KindLibrary:
		if p.Origin != ListActive {
			return Event{}, false
		}
		return ReturnToLibrary(p.SourceID), true
	case dropzone.KindContainer:
		if p.Origin == ListActive {
			return InsertAt(p.SourceID, len(cur.CheckOrder)), true
		}
		return Activate(p.SourceID), true
	case dropzone.KindSlot:
		return InsertAt(p.SourceID, target.Index), true
	case dropzone.KindItem:
		// dropping onto an item takes its position
		if p.Origin == ListActive && from < target.Index {
			return InsertAt(p.SourceID, target.Index+1), true
		}
		return InsertAt(p.SourceID, target.Index), true
	}
	return Event{}, false
}
