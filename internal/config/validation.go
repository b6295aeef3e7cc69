package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/rttidump/internal/rtti"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateTarget()...)
	errors = append(errors, c.validateScan()...)

	if c.Output.Catalog == "" && c.Output.IDC == "" && !c.Database.Enabled {
		errors = append(errors, ValidationError{
			Field:   "output",
			Message: "at least one of output.catalog, output.idc or database must be enabled",
		})
	}

	if c.Database.Enabled {
		errors = append(errors, c.validateDatabase()...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateScan checks only the settings a scan needs: target, scan and
// logging. Commands that write nothing use it instead of Validate.
func (c *Config) ValidateScan() error {
	var errors ValidationErrors

	errors = append(errors, c.validateTarget()...)
	errors = append(errors, c.validateScan()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateTarget() ValidationErrors {
	var errors ValidationErrors

	switch c.Target.Source {
	case SourcePE:
		if c.Target.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "target.path",
				Message: "path is required for the pe source",
			})
		}
	case SourceProcess:
		if c.Target.PID <= 0 {
			errors = append(errors, ValidationError{
				Field:   "target.pid",
				Message: "pid must be positive for the process source",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "target.source",
			Message: "source must be 'pe' or 'process'",
		})
	}

	if _, err := rtti.LayoutByName(c.Target.Layout); err != nil {
		errors = append(errors, ValidationError{
			Field:   "target.layout",
			Message: fmt.Sprintf("layout must be one of %s", strings.Join(rtti.LayoutNames(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateScan() ValidationErrors {
	var errors ValidationErrors

	if len(c.Scan.Roots) == 0 && c.Scan.ChainHead == "" {
		errors = append(errors, ValidationError{
			Field:   "scan",
			Message: "at least one root or a chain_head is required",
		})
	}

	for i, root := range c.Scan.Roots {
		if _, err := ParseAddress(root); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("scan.roots[%d]", i),
				Message: "root must be a hex address",
			})
		}
	}

	if _, err := c.Scan.ChainHeadAddr(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "scan.chain_head",
			Message: "chain_head must be a hex address",
		})
	}

	for i, sig := range c.Scan.Signatures {
		prefix := fmt.Sprintf("scan.signatures[%d]", i)
		if sig.Name == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: "name is required",
			})
		}
		if strings.TrimSpace(sig.Pattern) == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".pattern",
				Message: "pattern is required",
			})
		}
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors
	db := &c.Database

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "database.host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "database.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	if db.CatalogName == "" {
		errors = append(errors, ValidationError{
			Field:   "database.catalog_name",
			Message: "catalog_name is required",
		})
	}

	if db.BatchSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size cannot be negative",
		})
	}

	validVerify := map[string]bool{"count": true, "skip": true, "": true}
	if !validVerify[db.Verify] {
		errors = append(errors, ValidationError{
			Field:   "database.verify",
			Message: "verify must be 'count' or 'skip'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
