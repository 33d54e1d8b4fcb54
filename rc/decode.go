package rc

import (
	"regexp"
	"strconv"
	"strings"

	"shimwrapper-dashboard/catalog"
	"shimwrapper-dashboard/settings"
)

// reAssign matches one KEY="value", KEY='value' or KEY=digits assignment.
// It is a tolerant extractor, not a shell parser.
var reAssign = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?([A-Za-z_][A-Za-z0-9_]*)=(?:"((?:[^"\\\n]|\\.)*)"|'([^'\n]*)'|(-?\d+))[ \t]*(?:#.*)?$`)

// Parse extracts every recognised assignment from text. Later assignments
// of the same key win, as they would when the file is sourced.
func Parse(text string) map[string]string {
	vars := make(map[string]string)
	for _, m := range reAssign.FindAllStringSubmatch(text, -1) {
		switch {
		case m[4] != "":
			vars[m[1]] = m[4]
		case m[3] != "":
			vars[m[1]] = m[3]
		default:
			vars[m[1]] = unescape(m[2])
		}
	}
	return vars
}

// unescape undoes the backslash escapes of a double-quoted value. Only the
// characters the shell treats as special inside double quotes are escapes;
// any other backslash is kept literally.
func unescape(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) && strings.IndexByte("\\\"$`", v[i+1]) >= 0 {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// Decode rebuilds Settings from RC text. It never fails: anything it cannot
// interpret keeps its default. The result holds a single preset, the
// baseline, whose command lists come from the file.
func Decode(text string) settings.Settings {
	vars := Parse(text)
	s := settings.Defaults()

	s.CheckToggles = decodeToggles(vars)

	p := settings.BaselinePreset()
	_, hasEnforce := vars[VarEnforceCommands]
	_, hasHook := vars[VarHookCommands]
	if hasEnforce || hasHook {
		p.Supabase = &settings.SupabaseCommands{
			Enforce: decodeList(vars[VarEnforceCommands], catalog.SupabaseCommands()),
			Hook:    decodeList(vars[VarHookCommands], catalog.SupabaseCommands()),
		}
	}
	gitVar, hasGit := vars[VarGitEnforceCommands]
	if hasGit {
		p.Git = &settings.GitCommands{Enforce: decodeList(gitVar, catalog.GitCommands())}
	}
	if v, ok := vars[VarAutoPush]; ok {
		p.AutoPush = v == "1" || strings.EqualFold(v, "true")
	}
	if hasEnforce || hasHook || hasGit {
		p.Providers = []string{}
		if len(p.Supabase.Enforce) > 0 || len(p.Supabase.Hook) > 0 {
			p.Providers = append(p.Providers, catalog.ProviderSupabase)
		}
		if len(p.Git.Enforce) > 0 {
			p.Providers = append(p.Providers, catalog.ProviderGit)
		}
	}
	s.Presets = []settings.Preset{p}
	s.ActivePresetID = settings.BaselinePresetID

	if v, ok := vars[VarCheckOrder]; ok {
		s.CheckOrder = settings.NormalizeOrder(splitList(v))
	}
	if v := strings.TrimSpace(vars[VarReviewOutputPath]); v != "" {
		s.ReviewOutputPath = v
	}
	s.CheckSettings = decodeCheckSettings(vars)
	return s
}

// decodeToggles applies, in order: catalog defaults, the coarse --no-*
// tokens of SHIM_CHECKS_ARGS, then the SHIM_RUN_<CHECK> overrides.
func decodeToggles(vars map[string]string) map[string]bool {
	toggles := catalog.DefaultToggles()
	byFlag := make(map[string]string)
	for _, c := range catalog.All() {
		byFlag[c.Flag] = c.ID
	}
	for _, tok := range strings.Fields(vars[VarChecksArgs]) {
		flag, ok := strings.CutPrefix(tok, "--no-")
		if !ok {
			continue
		}
		switch flag {
		case catalog.BundleFrontend, catalog.BundleBackend:
			for _, id := range catalog.Bundle(flag) {
				toggles[id] = false
			}
		default:
			if id, known := byFlag[flag]; known {
				toggles[id] = false
			}
		}
	}
	for _, c := range catalog.All() {
		v, ok := vars[runPrefix+c.Env]
		if !ok {
			continue
		}
		switch v {
		case "1":
			toggles[c.ID] = true
		case "0":
			toggles[c.ID] = false
		}
	}
	return toggles
}

func decodeCheckSettings(vars map[string]string) map[string]map[string]any {
	out := settings.DefaultCheckSettings()
	for _, c := range catalog.All() {
		for _, schema := range c.Settings {
			raw, ok := vars[settingVar(c, schema.Key)]
			if !ok {
				continue
			}
			var v any = raw
			if schema.Type == catalog.TypeInt {
				if n, err := strconv.Atoi(raw); err == nil {
					v = n
				}
			}
			if cv, ok := settings.Coerce(schema, v); ok {
				out[c.ID][schema.Key] = cv
			}
		}
	}
	return out
}

func decodeList(v string, known []string) []string {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case listAll:
		return known
	case listNone, "":
		return []string{}
	}
	return catalog.FilterCommands(splitList(v), known)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
