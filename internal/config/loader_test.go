package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
target:
  source: pe
  path: /games/hfw/HorizonForbiddenWest.exe
  layout: hfw

scan:
  roots:
    - "0x1442A3F80"
    - "1442A4000"
  chain_head: "0x1442A0000"

output:
  catalog: hfw_types.json
  idc: hfw_ggrtti.idc

database:
  enabled: true
  host: localhost
  port: 3307
  user: rtti
  password: secret
  database: rtti
  catalog_name: hfw-1.0

logging:
  level: debug
  format: json
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify target config
	if cfg.Target.Path != "/games/hfw/HorizonForbiddenWest.exe" {
		t.Errorf("unexpected target path %s", cfg.Target.Path)
	}

	// Verify scan config
	roots, err := cfg.Scan.RootAddrs()
	if err != nil {
		t.Fatalf("RootAddrs() failed: %v", err)
	}
	if len(roots) != 2 || roots[0] != 0x1442A3F80 || roots[1] != 0x1442A4000 {
		t.Errorf("unexpected roots %x", roots)
	}
	head, err := cfg.Scan.ChainHeadAddr()
	if err != nil || head != 0x1442A0000 {
		t.Errorf("unexpected chain head 0x%x (err %v)", head, err)
	}

	// Defaults survive when the section is omitted
	if len(cfg.Scan.Signatures) != 2 {
		t.Errorf("expected default signatures, got %d", len(cfg.Scan.Signatures))
	}

	// Verify output and database config
	if cfg.Output.IDC != "hfw_ggrtti.idc" {
		t.Errorf("unexpected idc path %s", cfg.Output.IDC)
	}
	if !cfg.Database.Enabled || cfg.Database.Port != 3307 {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Database.CatalogName != "hfw-1.0" {
		t.Errorf("unexpected catalog name %s", cfg.Database.CatalogName)
	}
	if cfg.Database.MaxConnections != 4 {
		t.Errorf("expected default max_connections 4, got %d", cfg.Database.MaxConnections)
	}

	// Verify logging config
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to validate, got %v", err)
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	t.Setenv("RTTIDUMP_TEST_GAME_DIR", "/mnt/games")
	t.Setenv("RTTIDUMP_TEST_DB_PASS", "hunter2")

	configContent := `
target:
  path: ${RTTIDUMP_TEST_GAME_DIR}/DS.exe
database:
  password: ${RTTIDUMP_TEST_DB_PASS}
  user: $RTTIDUMP_TEST_UNSET
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Target.Path != "/mnt/games/DS.exe" {
		t.Errorf("expected substituted path, got %s", cfg.Target.Path)
	}
	if cfg.Database.Password != "hunter2" {
		t.Errorf("expected substituted password, got %s", cfg.Database.Password)
	}
	if cfg.Database.User != "$RTTIDUMP_TEST_UNSET" {
		t.Errorf("unset variables should be kept verbatim, got %s", cfg.Database.User)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	const key = "RTTIDUMP_TEST_DOTENV_HOST"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	if err := os.WriteFile(".env", []byte(key+"=db.internal\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	if err := os.WriteFile("test.yaml", []byte("database:\n  host: ${"+key+"}\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load("test.yaml")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected host from .env, got %s", cfg.Database.Host)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.Set("target.layout", "ds")
	v.Set("target.pid", 4242)
	v.Set("target.source", "process")

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatalf("LoadFromViper() failed: %v", err)
	}
	if cfg.Target.Layout != "ds" || cfg.Target.PID != 4242 || cfg.Target.Source != SourceProcess {
		t.Errorf("unexpected target %+v", cfg.Target)
	}
	if cfg.Output.Catalog != "types.json" {
		t.Errorf("expected default catalog path, got %s", cfg.Output.Catalog)
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"0x1442A3F80", 0x1442A3F80, false},
		{"0X10", 0x10, false},
		{"ff", 0xff, false},
		{"  0x20 ", 0x20, false},
		{"", 0, true},
		{"0xZZ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = 0x%x, want 0x%x", tt.input, got, tt.want)
			}
		})
	}
}

func TestRootAddrs_Invalid(t *testing.T) {
	s := ScanConfig{Roots: []string{"0x10", "nope"}}
	_, err := s.RootAddrs()
	if err == nil || !strings.Contains(err.Error(), "scan.roots[1]") {
		t.Errorf("expected error naming scan.roots[1], got %v", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOverrides("debug", "", "ds", "out.json", "")

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level override, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("empty override should keep format, got %s", cfg.Logging.Format)
	}
	if cfg.Target.Layout != "ds" {
		t.Errorf("expected layout override, got %s", cfg.Target.Layout)
	}
	if cfg.Output.Catalog != "out.json" {
		t.Errorf("expected catalog override, got %s", cfg.Output.Catalog)
	}
	if cfg.Output.IDC != "" {
		t.Errorf("empty override should keep idc, got %s", cfg.Output.IDC)
	}
}

func TestApplyTargetOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyTargetOverrides("", 1234)
	if cfg.Target.Source != SourceProcess || cfg.Target.PID != 1234 {
		t.Errorf("expected process target, got %+v", cfg.Target)
	}

	cfg.ApplyTargetOverrides("game.exe", 0)
	if cfg.Target.Source != SourcePE || cfg.Target.Path != "game.exe" {
		t.Errorf("expected pe target, got %+v", cfg.Target)
	}
}
