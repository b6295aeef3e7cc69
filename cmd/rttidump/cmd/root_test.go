package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	// Execute calls os.Exit on error; only check it exists.
	assert.NotNil(t, Execute)
}

func TestVersionVariables(t *testing.T) {
	assert.NotEmpty(t, Version, "Version should not be empty")
	assert.NotEmpty(t, Commit, "Commit should not be empty")
}

func TestCLIFlagsDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfigFile, cfgFile)
	assert.Equal(t, "", logLevel)
	assert.Equal(t, "", logFormat)
	assert.Equal(t, "", layoutName)
	assert.Equal(t, "", outputPath)
	assert.Equal(t, "", idcPath)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"dump", "types", "locate", "diff", "validate", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

// withFlags sets the global flag variables for one test.
func withFlags(t *testing.T, config, level, format, layout, out, idc string) {
	t.Helper()
	saved := []string{cfgFile, logLevel, logFormat, layoutName, outputPath, idcPath}
	t.Cleanup(func() {
		cfgFile, logLevel, logFormat, layoutName, outputPath, idcPath = saved[0], saved[1], saved[2], saved[3], saved[4], saved[5]
	})
	cfgFile, logLevel, logFormat, layoutName, outputPath, idcPath = config, level, format, layout, out, idc
}

func TestGetCLIOverrides(t *testing.T) {
	withFlags(t, "x.yaml", "debug", "json", "ds", "out.json", "out.idc")

	assert.Equal(t, "x.yaml", GetConfigFile())
	assert.Equal(t, CLIOverrides{
		LogLevel:  "debug",
		LogFormat: "json",
		Layout:    "ds",
		Output:    "out.json",
		IDC:       "out.idc",
	}, GetCLIOverrides())
}

func TestLoadConfig_MissingDefaultUsesDefaults(t *testing.T) {
	withFlags(t, filepath.Join(t.TempDir(), DefaultConfigFile), "", "", "ds", "", "")

	cfg, err := loadConfig(&cobra.Command{})
	require.NoError(t, err)
	assert.Equal(t, "ds", cfg.Target.Layout)
	assert.Equal(t, "types.json", cfg.Output.Catalog)
}

func TestLoadConfig_MissingExplicitFails(t *testing.T) {
	withFlags(t, filepath.Join(t.TempDir(), "nope.yaml"), "", "", "", "", "")

	c := &cobra.Command{}
	c.Flags().String("config", "", "")
	require.NoError(t, c.Flags().Set("config", cfgFile))

	_, err := loadConfig(c)
	assert.Error(t, err)
}

func TestLoadConfig_FileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rttidump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
target:
  path: game.exe
  layout: hfw
output:
  catalog: a.json
logging:
  level: warn
`), 0o644))
	withFlags(t, path, "debug", "", "", "b.json", "b.idc")

	cfg, err := loadConfig(&cobra.Command{})
	require.NoError(t, err)
	assert.Equal(t, "game.exe", cfg.Target.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "b.json", cfg.Output.Catalog)
	assert.Equal(t, "b.idc", cfg.Output.IDC)
}
