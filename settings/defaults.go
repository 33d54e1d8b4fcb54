package settings

import "shimwrapper-dashboard/catalog"

// BaselinePreset returns a fresh copy of the immutable default preset.
func BaselinePreset() Preset {
	return Preset{
		ID:        BaselinePresetID,
		Name:      BaselinePresetName,
		Providers: []string{catalog.ProviderSupabase, catalog.ProviderGit},
		Supabase: &SupabaseCommands{
			Enforce: catalog.SupabaseCommands(),
			Hook:    catalog.SupabaseCommands(),
		},
		Git:      &GitCommands{Enforce: []string{"push"}},
		AutoPush: false,
	}
}

// Defaults is the state used when nothing has been persisted yet.
func Defaults() Settings {
	return Settings{
		Presets:          []Preset{BaselinePreset()},
		ActivePresetID:   BaselinePresetID,
		CheckToggles:     catalog.DefaultToggles(),
		CheckSettings:    DefaultCheckSettings(),
		CheckOrder:       append([]string{}, catalog.DefaultOrder()...),
		ReviewOutputPath: DefaultReviewOutputPath,
	}
}

// DefaultCheckSettings holds the schema default of every option, keyed by check.
func DefaultCheckSettings() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, c := range catalog.All() {
		if len(c.Settings) == 0 {
			continue
		}
		opts := make(map[string]any, len(c.Settings))
		for _, s := range c.Settings {
			opts[s.Key] = s.Default
		}
		out[c.ID] = opts
	}
	return out
}

func defaultToggle(id string) bool {
	c, ok := catalog.Lookup(id)
	return ok && c.Enabled
}
