package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/rttidump/internal/config"
	"github.com/dbsmedya/rttidump/internal/hook"
	"github.com/dbsmedya/rttidump/internal/memory"
)

var (
	locatePE   string
	locateSigs []string
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Find the type factory functions in a PE image",
	Long: `Locate searches the code section of the executable for the configured
byte signatures and prints the address of every match. Signatures from the
config file can be replaced with --sig name=pattern; "?" matches any byte.

Example:
  rttidump locate --pe HorizonForbiddenWest.exe
  rttidump locate --pe DS.exe --sig "RegisterType=40 55 53 56 48 8D 6C 24 ?"`,
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVar(&locatePE, "pe", "", "PE image to search")
	locateCmd.Flags().StringArrayVar(&locateSigs, "sig", nil, "Signature as name=pattern (repeatable)")

	rootCmd.AddCommand(locateCmd)
}

// parseSignatureFlags parses name=pattern pairs.
func parseSignatureFlags(flags []string) ([]config.Signature, error) {
	sigs := make([]config.Signature, 0, len(flags))
	for _, f := range flags {
		name, pattern, ok := strings.Cut(f, "=")
		name, pattern = strings.TrimSpace(name), strings.TrimSpace(pattern)
		if !ok || name == "" || pattern == "" {
			return nil, fmt.Errorf("invalid signature %q: want name=pattern", f)
		}
		sigs = append(sigs, config.Signature{Name: name, Pattern: pattern})
	}
	return sigs, nil
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if locatePE != "" {
		cfg.Target.Path = locatePE
	}
	if cfg.Target.Path == "" {
		return errors.New("no PE image: set target.path or --pe")
	}
	if len(locateSigs) > 0 {
		cfg.Scan.Signatures, err = parseSignatureFlags(locateSigs)
		if err != nil {
			return err
		}
	}
	if len(cfg.Scan.Signatures) == 0 {
		return errors.New("no signatures configured")
	}

	img, err := memory.OpenPE(cfg.Target.Path)
	if err != nil {
		return err
	}
	return printLocations(cmd, hook.NewLocator(img), cfg.Scan.Signatures)
}

// printLocations resolves every signature, printing one line each, and
// fails when any lookup failed.
func printLocations(cmd *cobra.Command, loc *hook.Locator, sigs []config.Signature) error {
	failed := 0
	for _, s := range sigs {
		addr, err := loc.Locate(s.Name, s.Pattern)
		if err != nil {
			failed++
			var lookup *hook.LookupError
			reason := err.Error()
			if errors.As(err, &lookup) {
				reason = lookup.Err.Error()
			}
			cmd.Printf("%s %s: %s\n", color.Red.Sprint("✘"), s.Name, color.Red.Sprint(reason))
			continue
		}
		cmd.Printf("%s %s: %s\n", color.Green.Sprint("✔"), s.Name, color.Cyan.Sprintf("0x%X", addr))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d signatures not found", failed, len(sigs))
	}
	return nil
}
