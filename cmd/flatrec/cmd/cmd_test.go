package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssargent/flatrec/pkg/config"
	"github.com/ssargent/flatrec/pkg/di"
	"github.com/ssargent/flatrec/pkg/storage"
)

const testLayouts = `
layouts:
  - name: item
    description: Stock item
    match: "IT*"
    fields:
      - {name: code, length: 4, fillers: [{padder: "IT"}]}
      - {name: qty, type: integer, length: 3, padder: "0"}
  - name: note
    match: "NT*"
    fields:
      - {name: text, length: 6, align: right, fillers: [{padder: "NT"}]}
`

type env struct {
	dir        string
	configPath string
	rejectDir  string
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		rejectDir:  filepath.Join(dir, "rejects"),
	}

	layouts := filepath.Join(dir, "layouts.yaml")
	require.NoError(t, os.WriteFile(layouts, []byte(testLayouts), 0600))

	c := config.DefaultConfig()
	c.Layouts = layouts
	c.RejectDir = e.rejectDir
	c.Logging.Level = "error"
	require.NoError(t, config.SaveConfig(c, e.configPath))

	SetContainer(di.NewContainer(zap.NewNop()))
	t.Cleanup(func() { SetContainer(nil) })
	return e
}

func (e *env) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// run executes the root command with args and returns stdout and stderr
func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestInitCommand(t *testing.T) {
	e := setupEnv(t)
	path := filepath.Join(e.dir, "new", "flatrec.yaml")

	out, _, err := e.run(t, "", "init", "--config", path, "--layouts", "/srv/layouts.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+path)

	c, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/layouts.yaml", c.Layouts)
	assert.Len(t, c.Security.APIKey, 64)

	out, _, err = e.run(t, "", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestLayoutsCommand(t *testing.T) {
	e := setupEnv(t)

	out, _, err := e.run(t, "", "layouts", "--columns")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `item\s+9\s+IT\*\s+Stock item`, out)
	assert.Regexp(t, `qty\s+3\s+@6`, out)
	assert.Regexp(t, `note\s+8\s+NT\*`, out)
}

func TestDecodeCommand_RejectsAndList(t *testing.T) {
	e := setupEnv(t)
	input := e.file(t, "items.txt", "ITABCD005\r\nITAB\r\nITWXYZ120\r\n")

	out, summary, err := e.run(t, "", "decode", "item", input)
	require.NoError(t, err)
	assert.Equal(t, "{\"code\":\"ABCD\",\"qty\":5}\n{\"code\":\"WXYZ\",\"qty\":120}\n", out)
	assert.Contains(t, summary, "3 read, 2 mapped, 1 rejected, 0 skipped")

	out, _, err = e.run(t, "", "rejects", "list")
	require.NoError(t, err)
	var r storage.Reject
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &r))
	assert.Equal(t, 2, r.LineNumber)
	assert.Equal(t, "ITAB", r.Text)
	assert.Equal(t, "item", r.Layout)
	assert.Equal(t, input, r.Source)

	out, _, err = e.run(t, "", "rejects", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Purged 1 rejected lines")
}

func TestDecodeCommand_Poly(t *testing.T) {
	e := setupEnv(t)

	out, _, err := e.run(t, "ITABCD005\nNThello \nZZ\n", "decode", "--poly", "--on-error", "skip")
	require.NoError(t, err)
	assert.Equal(t, "{\"code\":\"ABCD\",\"qty\":5}\n{\"text\":\"hello\"}\n", out)
}

func TestDecodeCommand_Abort(t *testing.T) {
	e := setupEnv(t)

	_, _, err := e.run(t, "ITAB\n", "decode", "item", "--on-error", "abort")
	assert.ErrorContains(t, err, "line 1")
}

func TestEncodeCommand(t *testing.T) {
	e := setupEnv(t)
	output := filepath.Join(e.dir, "items.txt")

	_, summary, err := e.run(t, "{\"code\":\"ABCD\",\"qty\":5}\n{\"code\":\"WXYZ\",\"qty\":120}\n",
		"encode", "item", "-o", output, "--line-ending", "crlf", "--charset", "latin1")
	require.NoError(t, err)
	assert.Contains(t, summary, "2 read, 2 mapped")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "ITABCD005\r\nITWXYZ120\r\n", string(data))
}

func TestCommandErrors(t *testing.T) {
	e := setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown decode layout", []string{"decode", "missing"}},
		{"decode without layout", []string{"decode"}},
		{"poly with two files", []string{"decode", "--poly", "a", "b"}},
		{"unknown encode layout", []string{"encode", "missing"}},
		{"bad policy", []string{"decode", "item", "--on-error", "retry"}},
		{"bad charset", []string{"decode", "item", "--charset", "klingon"}},
		{"missing input", []string{"decode", "item", filepath.Join(e.dir, "missing.txt")}},
		{"missing layouts", []string{"layouts", "--layouts", filepath.Join(e.dir, "missing.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.run(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}
