// Package config provides configuration structures and loading for rttidump.
package config

// Config represents the complete application configuration.
type Config struct {
	Target   TargetConfig   `yaml:"target" mapstructure:"target"`
	Scan     ScanConfig     `yaml:"scan" mapstructure:"scan"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// Target sources.
const (
	SourcePE      = "pe"
	SourceProcess = "process"
)

// TargetConfig selects where the type records are read from.
type TargetConfig struct {
	Source string `yaml:"source" mapstructure:"source"` // pe or process
	Path   string `yaml:"path" mapstructure:"path"`     // executable, for pe
	PID    int    `yaml:"pid" mapstructure:"pid"`       // process id, for process
	Layout string `yaml:"layout" mapstructure:"layout"` // hfw or ds
}

// ScanConfig selects the records the scan starts from.
type ScanConfig struct {
	Roots      []string    `yaml:"roots" mapstructure:"roots"`           // record addresses, hex
	ChainHead  string      `yaml:"chain_head" mapstructure:"chain_head"` // first class of the registration chain
	Signatures []Signature `yaml:"signatures" mapstructure:"signatures"`
}

// Signature is a named byte pattern searched for in the executable's code.
type Signature struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
}

// OutputConfig names the generated files. An empty path disables the file.
type OutputConfig struct {
	Catalog string `yaml:"catalog" mapstructure:"catalog"`
	IDC     string `yaml:"idc" mapstructure:"idc"`
}

// DatabaseConfig represents the MySQL database the catalog is exported to.
type DatabaseConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
	CatalogName        string `yaml:"catalog_name" mapstructure:"catalog_name"` // rows are keyed by this name
	BatchSize          int    `yaml:"batch_size" mapstructure:"batch_size"`     // rows per INSERT statement
	Verify             string `yaml:"verify" mapstructure:"verify"`             // count or skip
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultSignatures locate the type factory in the 2022 build.
func DefaultSignatures() []Signature {
	return []Signature{
		{
			Name:    "RTTIFactory::RegisterAllTypes",
			Pattern: "40 55 48 8B EC 48 83 EC 70 80 3D ? ? ? ? ? 0F 85 ? ? ? ? 48 89 9C 24",
		},
		{
			Name:    "RTTIFactory::RegisterType",
			Pattern: "40 55 53 56 48 8D 6C 24 ? 48 81 EC ? ? ? ? 0F B6 42 05 48 8B DA 48 8B",
		},
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Source: SourcePE,
			Layout: "hfw",
		},
		Scan: ScanConfig{
			Signatures: DefaultSignatures(),
		},
		Output: OutputConfig{
			Catalog: "types.json",
		},
		Database: DatabaseConfig{
			Enabled:            false,
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     4,
			MaxIdleConnections: 2,
			CatalogName:        "default",
			BatchSize:          500,
			Verify:             "count",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
