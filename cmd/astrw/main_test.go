package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/astrw/internal/version"
)

// setupTestProject creates a small PHP project with one rule file
func setupTestProject(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()

	testFiles := map[string]string{
		"src/Controller.php": `<?php
namespace App\Http;

use function App\Support\trace;

class Controller {
    public function index() {
        trace("index");
        return \Astrw\Debug\sample_replacement_function();
    }
}
`,
		"src/plain.php":       "<?php\necho strlen('plain');\n",
		"vendor/acme/lib.php": "<?php\n\\App\\Support\\trace('vendored');\n",
		"rules/debug.toml": `
[[function]]
name = "App\\Support\\trace"
replace = false
`,
		".astrw.kdl": `
rules "rules/debug.toml"
processing {
    workers 2
}
`,
	}

	for path, content := range testFiles {
		fullPath := filepath.Join(tempDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
	}
	return tempDir
}

// runApp runs the CLI in process and returns its standard output
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"astrw"}, args...))
	return out.String(), err
}

func TestRewriteCommand_JSON(t *testing.T) {
	root := setupTestProject(t)

	out, err := runApp(t, "--root", root, "--sample", "rewrite", "--json", "--dump")
	require.NoError(t, err, out)

	var report runReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Summary.Files)
	assert.Equal(t, 2, report.Summary.Replacements)
	require.Len(t, report.Files, 2)
	assert.Equal(t, "src/Controller.php", report.Files[0].Path)
	assert.Equal(t, 2, report.Files[0].Replacements)
	assert.Contains(t, report.Files[0].Dump, "12345")
	assert.Equal(t, "src/plain.php", report.Files[1].Path)
}

func TestRewriteCommand_Text(t *testing.T) {
	root := setupTestProject(t)

	out, err := runApp(t, "--root", root, "rewrite", "src/Controller.php")
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok   src/Controller.php (1 replacements)")
	assert.Contains(t, out, "1 files, 1 replacements")
}

func TestRewriteCommand_FailureExitsNonZero(t *testing.T) {
	root := setupTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "broken.php"), []byte("<?php\nclass {\n"), 0644))

	out, err := runApp(t, "--root", root, "rewrite")
	assert.ErrorIs(t, err, errFilesFailed)
	assert.Contains(t, out, "FAIL src/broken.php")
}

func TestRewriteCommand_BadRules(t *testing.T) {
	root := setupTestProject(t)
	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[[function]]\nreplace = 1\n"), 0644))

	_, err := runApp(t, "--root", root, "--rules", bad, "rewrite")
	assert.Error(t, err)
}

func TestVisitorsCommand(t *testing.T) {
	root := setupTestProject(t)

	out, err := runApp(t, "--root", root, "--sample", "visitors", "--space", "function", "--json")
	require.NoError(t, err, out)

	var regs []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &regs))
	require.Len(t, regs, 2)
	keys := []interface{}{regs[0]["key"], regs[1]["key"]}
	assert.Contains(t, keys, `App\Support\trace`)

	out, err = runApp(t, "--root", root, "visitors", "--space", "function", "--suggest", `App\Support\tarce`)
	require.NoError(t, err, out)
	assert.Contains(t, out, `App\Support\trace`)

	_, err = runApp(t, "--root", root, "visitors", "--suggest", "x")
	assert.ErrorContains(t, err, "requires --space")

	_, err = runApp(t, "--root", root, "visitors", "--space", "method")
	assert.ErrorContains(t, err, "unknown space")
}

func TestConfigCommand(t *testing.T) {
	root := setupTestProject(t)

	out, err := runApp(t, "--root", root, "--exclude", "**/legacy/**", "config")
	require.NoError(t, err, out)

	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Contains(t, cfg["Exclude"], "**/legacy/**")
	assert.Contains(t, cfg["Rules"], "rules/debug.toml")
}

func TestInvalidTraceCategory(t *testing.T) {
	root := setupTestProject(t)
	_, err := runApp(t, "--root", root, "--trace", "bogus", "config")
	assert.Error(t, err)
}

func TestRewriteCommand_ChangedScope(t *testing.T) {
	root := setupTestProject(t)

	_, err := runApp(t, "--root", root, "rewrite", "--changed", "yesterday")
	assert.ErrorContains(t, err, "unknown scope")
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version", "--json")
	require.NoError(t, err, out)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info["version"])
	assert.NotEmpty(t, info["build_id"])
}
