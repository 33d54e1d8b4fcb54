package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"shimwrapper-dashboard/settings"
)

// Merge overlays the JSON document data onto base field by field. Fields
// that are absent keep the base value. A field that cannot be decoded also
// keeps the base value and contributes to the returned error, which is
// informational: the returned Settings is always normalised and usable.
func Merge(base settings.Settings, data []byte) (settings.Settings, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return settings.Normalize(base), fmt.Errorf("parse settings: %w", err)
	}

	out := base.Clone()
	var errs []error
	field := func(name string, dst any) bool {
		raw, ok := doc[name]
		if !ok || string(raw) == "null" {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", name, err))
			return false
		}
		return true
	}

	var presets []settings.Preset
	if field("presets", &presets) && len(presets) > 0 {
		out.Presets = presets
	}
	var active string
	if field("activePresetId", &active) {
		out.ActivePresetID = active
	}
	var toggles map[string]json.RawMessage
	if field("checkToggles", &toggles) {
		stored := make(map[string]bool, len(toggles))
		for k, raw := range toggles {
			var v bool
			if json.Unmarshal(raw, &v) == nil {
				stored[k] = v
			}
		}
		out.CheckToggles = stored
	}
	var checkSettings map[string]json.RawMessage
	if field("checkSettings", &checkSettings) {
		stored := make(map[string]map[string]any, len(checkSettings))
		for id, raw := range checkSettings {
			var opts map[string]any
			if json.Unmarshal(raw, &opts) == nil {
				stored[id] = opts
			}
		}
		out.CheckSettings = stored
	}
	var order []string
	if field("checkOrder", &order) {
		out.CheckOrder = order
	}
	var reviewPath string
	if field("reviewOutputPath", &reviewPath) {
		out.ReviewOutputPath = reviewPath
	}

	return settings.Normalize(out), errors.Join(errs...)
}
