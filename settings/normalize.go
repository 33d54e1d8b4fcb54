package settings

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"shimwrapper-dashboard/catalog"
)

// Legacy toggle keys from the two-flag toggle shape.
const (
	LegacyFrontendKey = "frontend"
	LegacyBackendKey  = "backend"
)

// Normalize returns a copy of s that satisfies every Settings invariant:
// the baseline preset exists with its fixed id and name, preset ids are
// unique, the active preset resolves, toggles are complete and migrated,
// check settings are typed by schema and the check order holds only known
// ids without duplicates. Normalize is idempotent.
func Normalize(s Settings) Settings {
	out := Settings{
		Presets:          normalizePresets(s.Presets),
		ActivePresetID:   s.ActivePresetID,
		CheckToggles:     MigrateToggles(s.CheckToggles),
		CheckSettings:    NormalizeCheckSettings(s.CheckSettings),
		CheckOrder:       NormalizeOrder(s.CheckOrder),
		ReviewOutputPath: strings.TrimSpace(s.ReviewOutputPath),
	}
	if _, ok := out.Preset(out.ActivePresetID); !ok {
		out.ActivePresetID = BaselinePresetID
	}
	if out.ReviewOutputPath == "" {
		out.ReviewOutputPath = DefaultReviewOutputPath
	}
	return out
}

// MigrateToggles resolves a stored toggle map against the catalog. Catalog
// defaults come first, then the legacy frontend/backend flags expand into
// their bundles, then every specific check key is applied on top. Legacy
// keys and unknown ids are absent from the result.
func MigrateToggles(stored map[string]bool) map[string]bool {
	out := catalog.DefaultToggles()
	if v, ok := stored[LegacyFrontendKey]; ok {
		for _, id := range catalog.Bundle(catalog.BundleFrontend) {
			out[id] = v
		}
	}
	if v, ok := stored[LegacyBackendKey]; ok {
		for _, id := range catalog.Bundle(catalog.BundleBackend) {
			out[id] = v
		}
	}
	for k, v := range stored {
		if k == LegacyFrontendKey || k == LegacyBackendKey || !catalog.Known(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// NormalizeOrder drops unknown ids and duplicates, keeping first occurrences.
func NormalizeOrder(order []string) []string {
	out := make([]string, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] || !catalog.Known(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// NormalizeCheckSettings fills schema defaults and coerces known option keys
// to their schema type. Unknown option keys of a known check are kept as is;
// settings of unknown checks are dropped.
func NormalizeCheckSettings(stored map[string]map[string]any) map[string]map[string]any {
	out := DefaultCheckSettings()
	for id, opts := range stored {
		c, ok := catalog.Lookup(id)
		if !ok {
			continue
		}
		dst, ok := out[id]
		if !ok {
			dst = make(map[string]any, len(opts))
			out[id] = dst
		}
		for k, v := range opts {
			schema, known := c.Schema(k)
			if !known {
				dst[k] = v
				continue
			}
			if cv, ok := Coerce(schema, v); ok {
				dst[k] = cv
			}
		}
	}
	return out
}

// Coerce converts v to the Go type of schema (bool, int or string).
// It reports false when v cannot represent a valid value.
func Coerce(schema catalog.SettingSchema, v any) (any, bool) {
	switch schema.Type {
	case catalog.TypeBool:
		switch t := v.(type) {
		case bool:
			return t, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			return b, err == nil
		default:
			if n, ok := toInt(v); ok {
				return n != 0, true
			}
		}
	case catalog.TypeInt:
		return toInt(v)
	case catalog.TypeString:
		if s, ok := v.(string); ok {
			return s, true
		}
	case catalog.TypeEnum:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		for _, o := range schema.Options {
			if o == s {
				return s, true
			}
		}
	}
	return nil, false
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func normalizePresets(in []Preset) []Preset {
	out := make([]Preset, 0, len(in)+1)
	seen := make(map[string]bool, len(in))
	hasBaseline := false
	for _, p := range in {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		p = sanitizePreset(p)
		if p.ID == BaselinePresetID {
			hasBaseline = true
			p.Name = BaselinePresetName
		}
		out = append(out, p)
	}
	if !hasBaseline {
		out = append([]Preset{BaselinePreset()}, out...)
	}
	return out
}

func sanitizePreset(p Preset) Preset {
	p = p.clone()
	providers := make([]string, 0, len(p.Providers))
	seen := map[string]bool{}
	for _, pr := range p.Providers {
		if catalog.KnownProvider(pr) && !seen[pr] {
			seen[pr] = true
			providers = append(providers, pr)
		}
	}
	p.Providers = providers
	if p.Supabase != nil {
		p.Supabase.Enforce = catalog.FilterCommands(p.Supabase.Enforce, catalog.SupabaseCommands())
		p.Supabase.Hook = catalog.FilterCommands(p.Supabase.Hook, catalog.SupabaseCommands())
	}
	if p.Git != nil {
		p.Git.Enforce = catalog.FilterCommands(p.Git.Enforce, catalog.GitCommands())
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = p.ID
	}
	return p
}
