package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "machete", cmd.Use)
	assert.Contains(t, cmd.Long, "X12 837")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"parse"}, {"check"}, {"roundtrip"}, {"decode"}, {"translate"}, {"inspect"}, {"test"},
		{"catalog", "validate"}, {"catalog", "list"}, {"catalog", "schema"},
		{"archive", "put"}, {"archive", "list"}, {"archive", "show"}, {"archive", "find"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		path  []string
		flag  string
		short string
	}{
		{[]string{"roundtrip"}, "output", "o"},
		{[]string{"roundtrip"}, "translate", ""},
		{[]string{"translate"}, "output", "o"},
		{[]string{"parse"}, "segments", ""},
		{[]string{"inspect"}, "batch", ""},
		{[]string{"test"}, "update", ""},
		{[]string{"archive", "list"}, "limit", ""},
	}
	for _, tt := range tests {
		sub, _, err := cmd.Find(tt.path)
		require.NoError(t, err)
		f := sub.Flags().Lookup(tt.flag)
		require.NotNil(t, f, "%v --%s", tt.path, tt.flag)
		assert.Equal(t, tt.short, f.Shorthand)
	}

	archive, _, err := cmd.Find([]string{"archive"})
	require.NoError(t, err)
	assert.NotNil(t, archive.PersistentFlags().Lookup("db"))
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "catalog", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestSettingsFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machete.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\narchive: claims.db\n"), 0o644))
	t.Setenv(ConfigEnv, path)

	opts := &RootOptions{Format: "text"}
	cfg, err := opts.settings()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "claims.db"), cfg.Archive)

	again, err := opts.settings()
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestSettingsFlagOverridesEnv(t *testing.T) {
	t.Setenv(ConfigEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	dir := t.TempDir()
	path := filepath.Join(dir, "machete.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	opts := &RootOptions{Format: "text", Config: path}
	cfg, err := opts.settings()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestSettingsDefaults(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	cfg, err := (&RootOptions{}).settings()
	require.NoError(t, err)
	assert.Equal(t, "machete.db", cfg.Archive)
}

func TestSettingsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machete.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o644))

	_, err := (&RootOptions{Config: path}).settings()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootExecuteWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machete.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o644))

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "catalog", "list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "837P")
}
