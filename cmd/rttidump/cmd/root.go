package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/rttidump/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// DefaultConfigFile is read when present and --config is not given.
const DefaultConfigFile = "rttidump.yaml"

// CLI flags that override config file values
var (
	cfgFile    string
	logLevel   string
	logFormat  string
	layoutName string
	outputPath string
	idcPath    string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "rttidump",
	Short: "Decima RTTI type catalog dumper",
	Long: `A CLI tool that reads the reflection metadata of a Decima engine
executable and writes a catalog of every type reachable from the type
factory's registrations.

Features:
  - Static PE images and live processes (Linux, including Wine/Proton)
  - Two record layouts (hfw, ds)
  - Deterministic catalog output and an IDC naming script
  - Optional export into MySQL and catalog diffs between builds`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.Enable = false
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", DefaultConfigFile,
		"Path to configuration file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	rootCmd.PersistentFlags().StringVar(&layoutName, "layout", "",
		"Override record layout (hfw, ds)")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "",
		"Override catalog output path")
	rootCmd.PersistentFlags().StringVar(&idcPath, "idc", "",
		"Override IDC script output path")

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	Layout    string
	Output    string
	IDC       string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Layout:    layoutName,
		Output:    outputPath,
		IDC:       idcPath,
	}
}

// loadConfig reads the config file and applies the CLI overrides. A missing
// default config file yields the defaults; a missing explicit one is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile := GetConfigFile()

	var cfg *config.Config
	_, statErr := os.Stat(configFile)
	switch {
	case statErr == nil:
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case errors.Is(statErr, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.DefaultConfig()
	default:
		return nil, fmt.Errorf("failed to load config: %w", statErr)
	}

	o := GetCLIOverrides()
	cfg.ApplyOverrides(o.LogLevel, o.LogFormat, o.Layout, o.Output, o.IDC)
	return cfg, nil
}
