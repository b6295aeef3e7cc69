package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/rttidump/internal/catalog"
	"github.com/dbsmedya/rttidump/internal/config"
	"github.com/dbsmedya/rttidump/internal/database"
	"github.com/dbsmedya/rttidump/internal/idc"
	"github.com/dbsmedya/rttidump/internal/logger"
	"github.com/dbsmedya/rttidump/internal/output"
	"github.com/dbsmedya/rttidump/internal/rtti"
	"github.com/dbsmedya/rttidump/internal/scanner"
	"github.com/dbsmedya/rttidump/internal/store"
)

var (
	dumpPE        string
	dumpPID       int
	dumpRoots     []string
	dumpChainHead string
	dumpDatabase  bool
	dumpNoLocate  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Scan the target and write the type catalog",
	Long: `Dump reads the type records of the target, walks every type reachable
from the registered roots and writes the results.

The dump process follows these steps:
  1. Locate the type factory in the executable's code (PE targets)
  2. Replay registrations from the registration chain and the roots
  3. Write the catalog and the IDC script (all files or none)
  4. Export the catalog into MySQL when the database is enabled

Example:
  rttidump dump --pe HorizonForbiddenWest.exe --chain-head 0x1434F1230 -o types.json`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpPE, "pe", "", "Read records from this PE image")
	dumpCmd.Flags().IntVar(&dumpPID, "pid", 0, "Read records from this running process")
	dumpCmd.Flags().StringSliceVar(&dumpRoots, "root", nil, "Additional root record address (hex, repeatable)")
	dumpCmd.Flags().StringVar(&dumpChainHead, "chain-head", "", "Override the registration chain head (hex)")
	dumpCmd.Flags().BoolVar(&dumpDatabase, "db", false, "Export the catalog into the configured database")
	dumpCmd.Flags().BoolVar(&dumpNoLocate, "no-locate", false, "Skip the type factory signature check")
	dumpCmd.MarkFlagsMutuallyExclusive("pe", "pid")

	rootCmd.AddCommand(dumpCmd)
}

// applyScanFlags applies the target and scan flags shared by dump and types.
func applyScanFlags(cfg *config.Config, pe string, pid int, roots []string, chainHead string) {
	cfg.ApplyTargetOverrides(pe, pid)
	cfg.Scan.Roots = append(cfg.Scan.Roots, roots...)
	if chainHead != "" {
		cfg.Scan.ChainHead = chainHead
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyScanFlags(cfg, dumpPE, dumpPID, dumpRoots, dumpChainHead)
	if dumpDatabase {
		cfg.Database.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := database.SetupSignalHandler(commandContext(cmd), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - aborting scan", "signal", sig.String())
	})
	defer stop()

	tgt, err := openTarget(cfg)
	if err != nil {
		return err
	}
	log.Infow("Starting dump",
		"target", tgt.desc,
		"layout", tgt.layout.Name,
		"config", GetConfigFile(),
	)

	if tgt.image != nil && !dumpNoLocate && len(cfg.Scan.Signatures) > 0 {
		matches, err := tgt.locate(cfg.Scan.Signatures)
		if err != nil {
			return err
		}
		for _, m := range matches {
			log.Infow("Located type factory function", "name", m.Name, "addr", fmt.Sprintf("0x%x", m.Addr))
		}
	}

	res, err := tgt.scan(ctx, cfg, log)
	if err != nil {
		return err
	}
	cat := catalog.Build(res.snapshot, tgt.layout)

	for name, group := range scanner.Collisions(res.snapshot) {
		log.Warnw("Several records share a display name; the catalog keeps all of them",
			"name", name, "count", len(group))
	}

	files := outputFiles(cfg, cat, res.snapshot, tgt.layout)
	if err := output.WriteAll(files...); err != nil {
		return err
	}

	var imported *store.ImportStats
	if cfg.Database.Enabled {
		imported, err = exportCatalog(ctx, cfg, cat, log)
		if err != nil {
			return err
		}
	}

	cmd.Printf("\n=== Dump Complete ===\n")
	cmd.Printf("Target: %s (%s)\n", tgt.desc, tgt.layout.Name)
	cmd.Printf("Registrations: %d\n", res.session.Registered())
	cmd.Printf("Types discovered: %d\n", len(res.snapshot))
	cmd.Printf("Types in catalog: %d\n", len(cat.Types))
	for _, f := range files {
		cmd.Printf("Wrote: %s\n", f.Path)
	}
	if imported != nil {
		cmd.Printf("Database catalog: %s (%d types)\n", imported.Catalog, imported.RowsPerTable[store.TypesTable])
	}
	return nil
}

// outputFiles lists the enabled output files.
func outputFiles(cfg *config.Config, cat *catalog.Catalog, snapshot []*rtti.Type, layout *rtti.Layout) []output.File {
	var files []output.File
	if cfg.Output.Catalog != "" {
		files = append(files, output.File{Path: cfg.Output.Catalog, Encode: cat.Encode})
	}
	if cfg.Output.IDC != "" {
		files = append(files, output.File{
			Path: cfg.Output.IDC,
			Encode: func(w io.Writer) error {
				return idc.Export(w, idc.Select(snapshot), layout)
			},
		})
	}
	return files
}

// exportCatalog writes cat into the configured database.
func exportCatalog(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, log *logger.Logger) (*store.ImportStats, error) {
	dbManager := database.NewManager(&cfg.Database)
	if err := dbManager.Connect(ctx); err != nil {
		return nil, err
	}
	defer dbManager.Close()

	s, err := store.New(dbManager.DB, &cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, cat)
}
