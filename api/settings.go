package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"shimwrapper-dashboard/catalog"
	"shimwrapper-dashboard/dropzone"
	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/ordering"
	"shimwrapper-dashboard/settings"
	"shimwrapper-dashboard/store"
)

const maxBody = 1 << 20

type settingsResponse struct {
	settings.Settings
	PresetsLastUpdated *time.Time `json:"presetsLastUpdated"`
	Error              string     `json:"error,omitempty"`
}

func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Read()
	resp := settingsResponse{Settings: snap.Settings, PresetsLastUpdated: snap.LastUpdated}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) postSettings(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var probe struct {
		Presets []json.RawMessage `json:"presets"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(probe.Presets) == 0 {
		writeError(w, http.StatusBadRequest, store.ErrNoPresets.Error())
		return
	}
	s, err := store.Merge(settings.Defaults(), data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.store.Write(s); err != nil {
		h.saveFailed(w, err)
		return
	}
	h.publish(events.SettingsChanged, map[string]string{"source": "api"})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type mutationResponse struct {
	OK       bool              `json:"ok"`
	Changed  bool              `json:"changed"`
	Event    *ordering.Event   `json:"event,omitempty"`
	Settings settings.Settings `json:"settings"`
}

func (h *handler) postEvent(w http.ResponseWriter, r *http.Request) {
	var ev ordering.Event
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.applyEvent(w, func(settings.Settings) (ordering.Event, bool) { return ev, true })
}

type dropRequest struct {
	Payload ordering.DragPayload `json:"payload"`
	Pointer dropzone.Point       `json:"pointer"`
	Targets []dropzone.Target    `json:"targets"`
}

// postDrop resolves a finished drag gesture server side. A drop that maps
// to no event answers 200 with changed=false.
func (h *handler) postDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil || req.Payload.SourceID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, ok := dropzone.Resolve(req.Pointer, req.Targets)
	if !ok {
		writeJSON(w, http.StatusOK, mutationResponse{OK: true, Settings: h.store.Read().Settings})
		return
	}
	h.applyEvent(w, func(cur settings.Settings) (ordering.Event, bool) {
		return ordering.EventForDrop(cur, req.Payload, target)
	})
}

// applyEvent builds an event from the stored settings and runs it through
// the ordering engine under the store's write lock, so indexes in the event
// refer to the same snapshot they are applied to. The result is persisted
// only when it changed something.
func (h *handler) applyEvent(w http.ResponseWriter, build func(settings.Settings) (ordering.Event, bool)) {
	var (
		ev        ordering.Event
		built     bool
		wasActive bool
	)
	saved, changed, err := h.store.Update(func(cur settings.Settings) (settings.Settings, bool, error) {
		ev, built = build(cur)
		if !built {
			return cur, false, nil
		}
		wasActive = cur.IndexOf(ev.ID) >= 0
		next, changed := ordering.Apply(cur, ev)
		return next, changed, nil
	})
	if err != nil {
		h.saveFailed(w, err)
		return
	}
	if !built {
		writeJSON(w, http.StatusOK, mutationResponse{OK: true, Settings: saved})
		return
	}
	if changed {
		h.publish(events.SettingsChanged, map[string]string{"source": "api", "event": string(ev.Kind)})
		switch isActive := saved.IndexOf(ev.ID) >= 0; {
		case isActive && !wasActive:
			h.publish(events.CheckActivated, map[string]string{"id": ev.ID})
		case !isActive && wasActive:
			h.publish(events.CheckDeactivated, map[string]string{"id": ev.ID})
		}
	}
	writeJSON(w, http.StatusOK, mutationResponse{OK: true, Changed: changed, Event: &ev, Settings: saved})
}

// putCheckSettings merges option values into one check's settings. Values
// are coerced against the catalog schema; keys the schema does not know are
// stored as given.
func (h *handler) putCheckSettings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	check, ok := catalog.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown check")
		return
	}
	var values map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for key, v := range values {
		if schema, known := check.Schema(key); known {
			cv, ok := settings.Coerce(schema, v)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid value for "+key)
				return
			}
			values[key] = cv
		}
	}

	saved, changed, err := h.store.Update(func(cur settings.Settings) (settings.Settings, bool, error) {
		next := cur.Clone()
		opts := next.CheckSettings[id]
		if opts == nil {
			opts = make(map[string]any)
			next.CheckSettings[id] = opts
		}
		changed := false
		for k, v := range values {
			if old, exists := opts[k]; !exists || !reflect.DeepEqual(old, v) {
				opts[k] = v
				changed = true
			}
		}
		return next, changed, nil
	})
	if err != nil {
		h.saveFailed(w, err)
		return
	}
	if changed {
		h.publish(events.SettingsChanged, map[string]string{"source": "api", "check": id})
	}
	writeJSON(w, http.StatusOK, mutationResponse{OK: true, Changed: changed, Settings: saved})
}

func (h *handler) getChecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

func (h *handler) saveFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNoPresets) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("save settings", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to save settings")
}
