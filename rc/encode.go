// Package rc converts between Settings and the flat shell-variable file
// (.shimwrappercheckrc) sourced by the shimwrappercheck runner.
package rc

import (
	"fmt"
	"strings"

	"shimwrapper-dashboard/catalog"
	"shimwrapper-dashboard/settings"
)

// FileName is the RC file name under the project root.
const FileName = ".shimwrappercheckrc"

// Variable names written to and read from the RC file.
const (
	VarEnforceCommands    = "SHIM_ENFORCE_COMMANDS"
	VarHookCommands       = "SHIM_HOOK_COMMANDS"
	VarGitEnforceCommands = "SHIM_GIT_ENFORCE_COMMANDS"
	VarAutoPush           = "SHIM_AUTO_PUSH"
	VarChecksArgs         = "SHIM_CHECKS_ARGS"
	VarCheckOrder         = "SHIM_CHECK_ORDER"
	VarReviewOutputPath   = "SHIM_REVIEW_OUTPUT_PATH"
	runPrefix             = "SHIM_RUN_"
)

const (
	listNone = "none"
	listAll  = "all"
)

// Encode renders s as RC text. The output is deterministic for equal input.
func Encode(s settings.Settings) string {
	p := s.ActivePreset()

	var b strings.Builder
	b.WriteString("# shimwrappercheck config, generated by the dashboard.\n")
	fmt.Fprintf(&b, "# Preset: %s\n", oneLine(p.Name))

	var enforce, hook, gitEnforce []string
	if p.HasProvider(catalog.ProviderSupabase) && p.Supabase != nil {
		enforce, hook = p.Supabase.Enforce, p.Supabase.Hook
	}
	if p.HasProvider(catalog.ProviderGit) && p.Git != nil {
		gitEnforce = p.Git.Enforce
	}
	writeString(&b, VarEnforceCommands, joinList(enforce))
	writeString(&b, VarHookCommands, joinList(hook))
	writeString(&b, VarGitEnforceCommands, joinList(gitEnforce))
	writeBool(&b, VarAutoPush, p.AutoPush)

	writeString(&b, VarChecksArgs, ChecksArgs(s))
	writeString(&b, VarCheckOrder, strings.Join(s.CheckOrder, ","))
	reviewPath := s.ReviewOutputPath
	if reviewPath == "" {
		reviewPath = settings.DefaultReviewOutputPath
	}
	writeString(&b, VarReviewOutputPath, reviewPath)

	checks := catalog.All()
	for _, c := range checks {
		writeBool(&b, runPrefix+c.Env, s.Enabled(c.ID))
	}
	for _, c := range checks {
		opts := s.CheckSettings[c.ID]
		for _, schema := range c.Settings {
			v, ok := opts[schema.Key]
			if !ok {
				v = schema.Default
			}
			cv, ok := settings.Coerce(schema, v)
			if !ok {
				cv = schema.Default
			}
			writeValue(&b, settingVar(c, schema.Key), cv)
		}
	}
	return b.String()
}

// ChecksArgs builds the runner argument string that disables checks. A
// bundle whose members are all disabled collapses into --no-<bundle>.
func ChecksArgs(s settings.Settings) string {
	var args []string
	for _, bundle := range []string{catalog.BundleFrontend, catalog.BundleBackend} {
		ids := catalog.Bundle(bundle)
		var off []string
		for _, id := range ids {
			if !s.Enabled(id) {
				c, _ := catalog.Lookup(id)
				off = append(off, "--no-"+c.Flag)
			}
		}
		if len(ids) > 0 && len(off) == len(ids) {
			args = append(args, "--no-"+bundle)
			continue
		}
		args = append(args, off...)
	}
	for _, c := range catalog.All() {
		if c.Bundle == "" && !s.Enabled(c.ID) {
			args = append(args, "--no-"+c.Flag)
		}
	}
	return strings.Join(args, " ")
}

// settingVar names the variable carrying option key of check c, for
// example SHIM_AI_REVIEW_MODE.
func settingVar(c catalog.Check, key string) string {
	return "SHIM_" + c.Env + "_" + upperSnake(key)
}

func upperSnake(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func joinList(ids []string) string {
	if len(ids) == 0 {
		return listNone
	}
	return strings.Join(ids, ",")
}

func writeString(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s=\"%s\"\n", key, escape(value))
}

func writeBool(b *strings.Builder, key string, v bool) {
	if v {
		fmt.Fprintf(b, "%s=1\n", key)
		return
	}
	fmt.Fprintf(b, "%s=0\n", key)
}

func writeValue(b *strings.Builder, key string, v any) {
	switch t := v.(type) {
	case bool:
		writeBool(b, key, t)
	case int:
		fmt.Fprintf(b, "%s=%d\n", key, t)
	case string:
		writeString(b, key, t)
	default:
		writeString(b, key, fmt.Sprint(t))
	}
}

// escape keeps values inside a double-quoted shell string literal.
func escape(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`", "\n", " ", "\r", "")
	return r.Replace(v)
}

func oneLine(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
