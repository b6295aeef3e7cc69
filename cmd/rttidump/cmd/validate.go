package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/rttidump/internal/config"
	"github.com/dbsmedya/rttidump/internal/database"
	"github.com/dbsmedya/rttidump/internal/hook"
	"github.com/dbsmedya/rttidump/internal/memory"
	"github.com/dbsmedya/rttidump/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and runs preflight checks
against the target and the database.

Checks performed:
  - Configuration syntax and required fields
  - Target image readable, signatures present in its code (pe source)
  - Database connectivity and catalog tables (when the database is enabled)

Example:
  rttidump validate --config rttidump.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())
	cmd.Printf("Target: %s (%s, layout %s)\n", targetDesc(cfg), cfg.Target.Source, cfg.Target.Layout)
	cmd.Printf("Roots: %d, chain head: %q\n\n", len(cfg.Scan.Roots), cfg.Scan.ChainHead)

	if err := cfg.Validate(); err != nil {
		cmd.Printf("❌ %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}
	cmd.Printf("✅ Configuration is valid\n")

	hasErrors := false
	if cfg.Target.Source == config.SourcePE {
		if err := checkImage(cmd, cfg); err != nil {
			cmd.Printf("❌ Target check failed: %v\n", err)
			hasErrors = true
		}
	}

	if cfg.Database.Enabled {
		if err := checkDatabase(commandContext(cmd), cfg); err != nil {
			cmd.Printf("❌ Database check failed: %v\n", err)
			hasErrors = true
		} else {
			cmd.Printf("✅ Database reachable, catalog tables present\n")
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	cmd.Println("\n=== Validation Complete ===")
	return nil
}

func targetDesc(cfg *config.Config) string {
	if cfg.Target.Source == config.SourceProcess {
		return fmt.Sprintf("pid %d", cfg.Target.PID)
	}
	return cfg.Target.Path
}

// checkImage opens the PE image and resolves the configured signatures.
func checkImage(cmd *cobra.Command, cfg *config.Config) error {
	if _, err := os.Stat(cfg.Target.Path); err != nil {
		return err
	}
	img, err := memory.OpenPE(cfg.Target.Path)
	if err != nil {
		return err
	}
	cmd.Printf("✅ Image mapped at 0x%X (%d sections)\n", img.Base, len(img.Sections()))

	if len(cfg.Scan.Signatures) == 0 {
		return nil
	}
	return printLocations(cmd, hook.NewLocator(img), cfg.Scan.Signatures)
}

// checkDatabase connects and creates the catalog tables if needed.
func checkDatabase(ctx context.Context, cfg *config.Config) error {
	dbManager := database.NewManager(&cfg.Database)
	if err := dbManager.Connect(ctx); err != nil {
		return err
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return err
	}
	s, err := store.New(dbManager.DB, &cfg.Database, nil)
	if err != nil {
		return err
	}
	return s.EnsureSchema(ctx)
}
