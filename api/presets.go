package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/settings"
)

type presetsResponse struct {
	Presets        []settings.Preset `json:"presets"`
	ActivePresetID string            `json:"activePresetId"`
}

func (h *handler) getPresets(w http.ResponseWriter, r *http.Request) {
	s := h.store.Read().Settings
	writeJSON(w, http.StatusOK, presetsResponse{Presets: s.Presets, ActivePresetID: s.ActivePresetID})
}

func decodeName(r *http.Request) (string, bool) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		return "", false
	}
	return req.Name, true
}

func (h *handler) createPreset(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeName(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := settings.NewPreset(name)
	_, _, err := h.store.Update(func(cur settings.Settings) (settings.Settings, bool, error) {
		next, err := settings.AddPreset(cur, p)
		return next, err == nil, err
	})
	if err != nil {
		h.presetFailed(w, err)
		return
	}
	h.publish(events.SettingsChanged, map[string]string{"source": "api", "preset": p.ID})
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) renamePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name, ok := decodeName(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, _, err := h.store.Update(func(cur settings.Settings) (settings.Settings, bool, error) {
		next, err := settings.RenamePreset(cur, id, name)
		return next, err == nil, err
	})
	if err != nil {
		h.presetFailed(w, err)
		return
	}
	h.publish(events.SettingsChanged, map[string]string{"source": "api", "preset": id})
	p, _ := saved.Preset(id)
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, _, err := h.store.Update(func(cur settings.Settings) (settings.Settings, bool, error) {
		next, err := settings.DeletePreset(cur, id)
		return next, err == nil, err
	})
	if err != nil {
		h.presetFailed(w, err)
		return
	}
	h.publish(events.SettingsChanged, map[string]string{"source": "api", "preset": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) activatePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, changed, err := h.store.Update(func(cur settings.Settings) (settings.Settings, bool, error) {
		if cur.ActivePresetID == req.ID {
			return cur, false, nil
		}
		next, err := settings.SetActivePreset(cur, req.ID)
		return next, err == nil, err
	})
	if err != nil {
		h.presetFailed(w, err)
		return
	}
	if changed {
		h.publish(events.SettingsChanged, map[string]string{"source": "api", "preset": req.ID})
	}
	writeJSON(w, http.StatusOK, presetsResponse{Presets: saved.Presets, ActivePresetID: saved.ActivePresetID})
}

func (h *handler) presetFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settings.ErrPresetNotFound):
		writeError(w, http.StatusNotFound, "preset not found")
	case errors.Is(err, settings.ErrBaselinePreset):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, settings.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, settings.ErrDuplicatePreset):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.saveFailed(w, err)
	}
}
