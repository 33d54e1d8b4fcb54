package runlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shimwrapper-dashboard/catalog"
)

var testMarkers = Markers{
	{CheckID: "lint", Markers: []string{"Lint..."}},
	{CheckID: "prettier", Markers: []string{"Prettier..."}},
}

func TestSegmentBasic(t *testing.T) {
	got := Segment("...\nLint...\nok\nPrettier...\ndone\n", testMarkers)
	assert.Equal(t, map[string]string{
		"lint":     "Lint...\nok",
		"prettier": "Prettier...\ndone",
	}, got)
}

func TestSegmentDropsPreamble(t *testing.T) {
	got := Segment("npm warn something\nstarting\n", testMarkers)
	assert.Empty(t, got)
}

func TestSegmentLastRunWins(t *testing.T) {
	text := "Lint...\nfirst\nPrettier...\np\nLint...\nsecond\n"
	got := Segment(text, testMarkers)
	assert.Equal(t, "Lint...\nsecond", got["lint"])
	assert.Equal(t, "Prettier...\np", got["prettier"])
}

func TestSegmentCRLFAndEmbeddedMarker(t *testing.T) {
	text := "\x1b[1m==> Lint...\x1b[0m\r\nall good\r\n"
	got := Segment(text, testMarkers)
	assert.Equal(t, "\x1b[1m==> Lint...\x1b[0m\nall good", got["lint"])
}

func TestDefaultMarkersFromCatalog(t *testing.T) {
	m := DefaultMarkers()
	require.NotEmpty(t, m)
	got := Segment("Running ESLint\n0 problems\nDeno lint...\nchecked 3 files\nAI Review...\nscore 97\n", m)
	assert.Equal(t, "Running ESLint\n0 problems", got["lint"])
	assert.Equal(t, "Deno lint...\nchecked 3 files", got["denoLint"])
	assert.Equal(t, "AI Review...\nscore 97", got["aiReview"])
	for id := range got {
		assert.True(t, catalog.Known(id), id)
	}
}

func TestLoadMissing(t *testing.T) {
	lg, err := Load(t.TempDir(), testMarkers)
	require.NoError(t, err)
	assert.Equal(t, "", lg.Full)
	assert.NotNil(t, lg.Segments)
	assert.Nil(t, lg.Timestamp)
}

func TestWriteAndLoad(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Write(root, LastRun{Stdout: "Lint...\nok", Stderr: "Prettier...\nfail", Timestamp: "2026-01-02T03:04:05Z"}))

	lg, err := Load(root, testMarkers)
	require.NoError(t, err)
	assert.Equal(t, "Lint...\nok\nPrettier...\nfail", lg.Full)
	assert.Equal(t, "Prettier...\nfail", lg.Segments["prettier"])
	require.NotNil(t, lg.Timestamp)
	assert.Equal(t, "2026-01-02T03:04:05Z", *lg.Timestamp)
}

func TestLoadCorrupt(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0755))
	require.NoError(t, os.WriteFile(Path(root), []byte("{nope"), 0644))

	lg, err := Load(root, testMarkers)
	assert.Error(t, err)
	assert.NotNil(t, lg.Segments)
}

func TestWriteFillsTimestamp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Write(root, LastRun{Stdout: "x"}))
	r, err := Read(root)
	require.NoError(t, err)
	assert.NotEmpty(t, r.Timestamp)
}
