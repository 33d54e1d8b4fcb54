package rc

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shimwrapper-dashboard/catalog"
	"shimwrapper-dashboard/settings"
)

func TestEncodeDeterministic(t *testing.T) {
	s := settings.Defaults()
	assert.Equal(t, Encode(s), Encode(s.Clone()))
}

func TestEncodeDefaults(t *testing.T) {
	out := Encode(settings.Defaults())
	assert.True(t, strings.HasPrefix(out, "# shimwrappercheck config"))
	assert.Contains(t, out, `SHIM_ENFORCE_COMMANDS="functions,db,migration"`+"\n")
	assert.Contains(t, out, `SHIM_GIT_ENFORCE_COMMANDS="push"`+"\n")
	assert.Contains(t, out, "SHIM_AUTO_PUSH=0\n")
	assert.Contains(t, out, `SHIM_CHECKS_ARGS="--no-snyk --no-i18n --no-update-readme --no-explanation-check"`+"\n")
	assert.Contains(t, out, "SHIM_RUN_LINT=1\n")
	assert.Contains(t, out, "SHIM_RUN_SNYK=0\n")
	assert.Contains(t, out, `SHIM_AI_REVIEW_MODE="full"`+"\n")
	assert.Contains(t, out, "SHIM_AI_REVIEW_TIMEOUT_SEC=180\n")
	assert.Contains(t, out, "SHIM_LINT_MAX_WARNINGS=-1\n")
}

func TestChecksArgsCollapsesBundles(t *testing.T) {
	s := settings.Defaults()
	for _, id := range catalog.Bundle(catalog.BundleFrontend) {
		s.CheckToggles[id] = false
	}
	s.CheckToggles["denoLint"] = false
	s.CheckToggles["aiReview"] = false

	got := ChecksArgs(s)
	assert.Equal(t, "--no-frontend --no-deno-lint --no-snyk --no-i18n --no-update-readme --no-ai-review --no-explanation-check", got)
}

func TestEncodePresetWithoutProviders(t *testing.T) {
	s := settings.Defaults()
	s.Presets = append(s.Presets, settings.Preset{ID: "bare", Name: "Bare\nname", AutoPush: true})
	s.ActivePresetID = "bare"

	out := Encode(s)
	assert.Contains(t, out, "# Preset: Bare name\n")
	assert.Contains(t, out, `SHIM_ENFORCE_COMMANDS="none"`)
	assert.Contains(t, out, `SHIM_GIT_ENFORCE_COMMANDS="none"`)
	assert.Contains(t, out, "SHIM_AUTO_PUSH=1\n")
}

func TestRoundTripSpecificToggles(t *testing.T) {
	cases := map[string]func(settings.Settings) settings.Settings{
		"defaults": func(s settings.Settings) settings.Settings { return s },
		"all off": func(s settings.Settings) settings.Settings {
			for id := range s.CheckToggles {
				s.CheckToggles[id] = false
			}
			return s
		},
		"all on": func(s settings.Settings) settings.Settings {
			for id := range s.CheckToggles {
				s.CheckToggles[id] = true
			}
			return s
		},
		"mixed": func(s settings.Settings) settings.Settings {
			s.CheckToggles["prettier"] = false
			s.CheckToggles["denoAudit"] = false
			s.CheckToggles["snyk"] = true
			return s
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := mutate(settings.Defaults())
			got := Decode(Encode(s))
			if diff := cmp.Diff(s.CheckToggles, got.CheckToggles); diff != "" {
				t.Fatalf("toggles differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTripOrderSettingsAndPreset(t *testing.T) {
	s := settings.Defaults()
	s.CheckOrder = []string{"semgrep", "lint"}
	s.ReviewOutputPath = "out/reviews"
	s.CheckSettings["aiReview"]["mode"] = "mix"
	s.CheckSettings["lint"]["maxWarnings"] = 0
	s.CheckSettings["lint"]["fix"] = true
	s.Presets[0].Supabase.Hook = []string{"db"}
	s.Presets[0].AutoPush = true

	got := Decode(Encode(s))
	assert.Equal(t, []string{"semgrep", "lint"}, got.CheckOrder)
	assert.Equal(t, "out/reviews", got.ReviewOutputPath)
	assert.Equal(t, "mix", got.CheckSettings["aiReview"]["mode"])
	assert.Equal(t, 0, got.CheckSettings["lint"]["maxWarnings"])
	assert.Equal(t, true, got.CheckSettings["lint"]["fix"])
	require.Len(t, got.Presets, 1)
	p := got.Presets[0]
	assert.Equal(t, settings.BaselinePresetID, p.ID)
	assert.Equal(t, []string{"db"}, p.Supabase.Hook)
	assert.True(t, p.AutoPush)
	assert.Equal(t, []string{"supabase", "git"}, p.Providers)

	assert.Equal(t, Encode(got), Encode(Decode(Encode(got))))
}

func TestRoundTripShellSpecialCharacters(t *testing.T) {
	const cmd = `npm test -- --grep "api" $CI`
	s := settings.Defaults()
	s.CheckSettings["testRun"]["command"] = cmd
	s.ReviewOutputPath = `C:\reviews\` + "`out`"

	text := Encode(s)
	assert.Contains(t, text, `SHIM_TEST_RUN_COMMAND="npm test -- --grep \"api\" \$CI"`)

	got := Decode(text)
	assert.Equal(t, cmd, got.CheckSettings["testRun"]["command"])
	assert.Equal(t, s.ReviewOutputPath, got.ReviewOutputPath)
}

func TestEncodeFoldsNewlines(t *testing.T) {
	s := settings.Defaults()
	s.CheckSettings["testRun"]["command"] = "npm test\r\n--ci"
	got := Decode(Encode(s))
	assert.Equal(t, "npm test --ci", got.CheckSettings["testRun"]["command"])
}

func TestEmptyOrderRoundTrips(t *testing.T) {
	s := settings.Defaults()
	s.CheckOrder = []string{}
	assert.Empty(t, Decode(Encode(s)).CheckOrder)
}

func TestDecodeGarbage(t *testing.T) {
	for _, text := range []string{"", "\x00\x01 not a config", "SHIM_RUN_LINT=maybe\n=1\n"} {
		got := Decode(text)
		if diff := cmp.Diff(settings.Defaults(), got); diff != "" {
			t.Fatalf("Decode(%q) should equal defaults (-want +got):\n%s", text, diff)
		}
	}
}

func TestDecodeCoarseThenSpecific(t *testing.T) {
	text := `
# hand written
SHIM_RUN_LINT=1
export SHIM_CHECKS_ARGS="--no-frontend --no-backend --no-semgrep --bogus"
SHIM_RUN_DENO_FMT='1'   # comment
`
	got := Decode(text)
	assert.True(t, got.CheckToggles["lint"], "specific override wins even when written first")
	assert.False(t, got.CheckToggles["prettier"])
	assert.True(t, got.CheckToggles["denoFmt"])
	assert.False(t, got.CheckToggles["denoLint"])
	assert.False(t, got.CheckToggles["semgrep"])
	assert.True(t, got.CheckToggles["gitleaks"])
}

func TestDecodeCommandLists(t *testing.T) {
	got := Decode(`SHIM_ENFORCE_COMMANDS="functions, bogus ,db,db"
SHIM_HOOK_COMMANDS="all"
SHIM_GIT_ENFORCE_COMMANDS="none"
SHIM_AUTO_PUSH=1
`)
	p := got.Presets[0]
	assert.Equal(t, []string{"functions", "db"}, p.Supabase.Enforce)
	assert.Equal(t, catalog.SupabaseCommands(), p.Supabase.Hook)
	assert.Empty(t, p.Git.Enforce)
	assert.Equal(t, []string{"supabase"}, p.Providers)
	assert.True(t, p.AutoPush)
}

func TestParseLastAssignmentWins(t *testing.T) {
	vars := Parse("A=\"1\"\nA=\"2\"\nB=3\n  C='x y'\n")
	assert.Equal(t, map[string]string{"A": "2", "B": "3", "C": "x y"}, vars)
}

func TestParseUnescapesDoubleQuoted(t *testing.T) {
	vars := Parse(`A="say \"hi\" to \$USER"` + "\n" + `B="a\\b \n c"` + "\n" + `C=""` + "\n" + `D='\$raw'` + "\n")
	assert.Equal(t, map[string]string{
		"A": `say "hi" to $USER`,
		"B": `a\b \n c`,
		"C": "",
		"D": `\$raw`,
	}, vars)
}

func TestUpperSnake(t *testing.T) {
	assert.Equal(t, "TIMEOUT_SEC", upperSnake("timeoutSec"))
	assert.Equal(t, "MODE", upperSnake("mode"))
}
