package settings

import "errors"

// BaselinePresetID is the reserved id of the preset that always exists.
const BaselinePresetID = "default"

// BaselinePresetName is the fixed display name of the baseline preset.
const BaselinePresetName = "Vibe Code"

// DefaultReviewOutputPath is where review reports land when unset.
const DefaultReviewOutputPath = "reports"

// SupabaseCommands are the supabase command ids a preset enforces or hooks.
type SupabaseCommands struct {
	Enforce []string `json:"enforce"`
	Hook    []string `json:"hook"`
}

// GitCommands are the git command ids a preset enforces.
type GitCommands struct {
	Enforce []string `json:"enforce"`
}

// Preset is a named set of providers and the commands guarded for each.
type Preset struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Providers []string          `json:"providers"`
	Supabase  *SupabaseCommands `json:"supabase,omitempty"`
	Git       *GitCommands      `json:"git,omitempty"`
	AutoPush  bool              `json:"autoPush"`
}

// HasProvider reports whether p is enabled on the preset.
func (p Preset) HasProvider(provider string) bool {
	for _, pr := range p.Providers {
		if pr == provider {
			return true
		}
	}
	return false
}

// Settings is the full persisted state. Every mutation produces a new value.
type Settings struct {
	Presets          []Preset                  `json:"presets"`
	ActivePresetID   string                    `json:"activePresetId"`
	CheckToggles     map[string]bool           `json:"checkToggles"`
	CheckSettings    map[string]map[string]any `json:"checkSettings"`
	CheckOrder       []string                  `json:"checkOrder"`
	ReviewOutputPath string                    `json:"reviewOutputPath"`
}

var (
	ErrPresetNotFound  = errors.New("settings: preset not found")
	ErrBaselinePreset  = errors.New("settings: the default preset cannot be changed")
	ErrInvalidName     = errors.New("settings: preset name must not be empty")
	ErrDuplicatePreset = errors.New("settings: preset id already exists")
)

// Preset returns the preset with id.
func (s Settings) Preset(id string) (Preset, bool) {
	for _, p := range s.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ActivePreset resolves the active preset, falling back to the baseline.
func (s Settings) ActivePreset() Preset {
	if p, ok := s.Preset(s.ActivePresetID); ok {
		return p
	}
	if p, ok := s.Preset(BaselinePresetID); ok {
		return p
	}
	return BaselinePreset()
}

// Enabled resolves a check toggle, using the catalog default for missing keys.
func (s Settings) Enabled(id string) bool {
	if v, ok := s.CheckToggles[id]; ok {
		return v
	}
	return defaultToggle(id)
}

// IndexOf returns the position of id in CheckOrder, or -1.
func (s Settings) IndexOf(id string) int {
	for i, o := range s.CheckOrder {
		if o == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	out.Presets = make([]Preset, len(s.Presets))
	for i, p := range s.Presets {
		out.Presets[i] = p.clone()
	}
	out.CheckToggles = make(map[string]bool, len(s.CheckToggles))
	for k, v := range s.CheckToggles {
		out.CheckToggles[k] = v
	}
	out.CheckSettings = make(map[string]map[string]any, len(s.CheckSettings))
	for id, opts := range s.CheckSettings {
		cp := make(map[string]any, len(opts))
		for k, v := range opts {
			cp[k] = v
		}
		out.CheckSettings[id] = cp
	}
	out.CheckOrder = append([]string{}, s.CheckOrder...)
	return out
}

func (p Preset) clone() Preset {
	out := p
	out.Providers = append([]string{}, p.Providers...)
	if p.Supabase != nil {
		out.Supabase = &SupabaseCommands{
			Enforce: append([]string{}, p.Supabase.Enforce...),
			Hook:    append([]string{}, p.Supabase.Hook...),
		}
	}
	if p.Git != nil {
		out.Git = &GitCommands{Enforce: append([]string{}, p.Git.Enforce...)}
	}
	return out
}
