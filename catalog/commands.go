package catalog

// Provider ids a preset can enable.
const (
	ProviderSupabase = "supabase"
	ProviderGit      = "git"
)

var (
	supabaseCommands = []string{"functions", "db", "migration"}
	gitCommands      = []string{"push", "commit", "merge"}
)

// SupabaseCommands lists the known supabase command ids in canonical order.
func SupabaseCommands() []string { return append([]string(nil), supabaseCommands...) }

// GitCommands lists the known git command ids in canonical order.
func GitCommands() []string { return append([]string(nil), gitCommands...) }

// KnownProvider reports whether p is a provider id.
func KnownProvider(p string) bool {
	return p == ProviderSupabase || p == ProviderGit
}

// FilterCommands keeps the ids in known, deduplicated, preserving input order.
func FilterCommands(ids []string, known []string) []string {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !set[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
