package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
// Variables from a .env file in the working directory are loaded first and
// never override variables already set in the environment.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Target.Path = expandEnvVar(cfg.Target.Path)

	cfg.Output.Catalog = expandEnvVar(cfg.Output.Catalog)
	cfg.Output.IDC = expandEnvVar(cfg.Output.IDC)

	cfg.Database.Host = expandEnvVar(cfg.Database.Host)
	cfg.Database.User = expandEnvVar(cfg.Database.User)
	cfg.Database.Password = expandEnvVar(cfg.Database.Password)
	cfg.Database.Database = expandEnvVar(cfg.Database.Database)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// ParseAddress parses a record address written in hex, with or without a
// 0x prefix.
func ParseAddress(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	addr, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return addr, nil
}

// RootAddrs returns the configured root addresses in order.
func (s *ScanConfig) RootAddrs() ([]uint64, error) {
	addrs := make([]uint64, 0, len(s.Roots))
	for i, root := range s.Roots {
		addr, err := ParseAddress(root)
		if err != nil {
			return nil, fmt.Errorf("scan.roots[%d]: %w", i, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// ChainHeadAddr returns the chain head address, or 0 when none is set.
func (s *ScanConfig) ChainHeadAddr() (uint64, error) {
	if s.ChainHead == "" {
		return 0, nil
	}
	addr, err := ParseAddress(s.ChainHead)
	if err != nil {
		return 0, fmt.Errorf("scan.chain_head: %w", err)
	}
	return addr, nil
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, layout, catalogPath, idcPath string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if layout != "" {
		c.Target.Layout = layout
	}
	if catalogPath != "" {
		c.Output.Catalog = catalogPath
	}
	if idcPath != "" {
		c.Output.IDC = idcPath
	}
}

// ApplyTargetOverrides replaces the target source from CLI flags. A path
// selects the pe source and a pid selects the process source.
func (c *Config) ApplyTargetOverrides(path string, pid int) {
	if path != "" {
		c.Target.Source = SourcePE
		c.Target.Path = path
	}
	if pid > 0 {
		c.Target.Source = SourceProcess
		c.Target.PID = pid
	}
}
