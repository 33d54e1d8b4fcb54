package settings

import (
	"strings"

	"github.com/google/uuid"
)

// NewPreset creates a preset named name with the baseline's providers and
// command lists and a fresh id.
func NewPreset(name string) Preset {
	p := BaselinePreset()
	p.ID = "preset-" + uuid.New().String()
	p.Name = strings.TrimSpace(name)
	return p
}

// AddPreset appends p and makes it active.
func AddPreset(s Settings, p Preset) (Settings, error) {
	if strings.TrimSpace(p.Name) == "" {
		return s, ErrInvalidName
	}
	if _, exists := s.Preset(p.ID); exists {
		return s, ErrDuplicatePreset
	}
	out := s.Clone()
	out.Presets = append(out.Presets, p.clone())
	out.ActivePresetID = p.ID
	return out, nil
}

// RenamePreset changes the display name of a non-baseline preset.
func RenamePreset(s Settings, id, name string) (Settings, error) {
	name = strings.TrimSpace(name)
	if id == BaselinePresetID {
		return s, ErrBaselinePreset
	}
	if name == "" {
		return s, ErrInvalidName
	}
	out := s.Clone()
	for i := range out.Presets {
		if out.Presets[i].ID == id {
			out.Presets[i].Name = name
			return out, nil
		}
	}
	return s, ErrPresetNotFound
}

// DeletePreset removes a non-baseline preset. Deleting the active preset
// makes the baseline active. The baseline itself cannot be deleted: s is
// returned unchanged together with ErrBaselinePreset.
func DeletePreset(s Settings, id string) (Settings, error) {
	if id == BaselinePresetID {
		return s, ErrBaselinePreset
	}
	idx := -1
	for i, p := range s.Presets {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, ErrPresetNotFound
	}
	out := s.Clone()
	out.Presets = append(out.Presets[:idx], out.Presets[idx+1:]...)
	if out.ActivePresetID == id {
		out.ActivePresetID = BaselinePresetID
	}
	return out, nil
}

// SetActivePreset selects the preset with id.
func SetActivePreset(s Settings, id string) (Settings, error) {
	if _, ok := s.Preset(id); !ok {
		return s, ErrPresetNotFound
	}
	out := s.Clone()
	out.ActivePresetID = id
	return out, nil
}
