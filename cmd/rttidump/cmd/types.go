package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/rttidump/internal/database"
	"github.com/dbsmedya/rttidump/internal/graph"
	"github.com/dbsmedya/rttidump/internal/logger"
	"github.com/dbsmedya/rttidump/internal/rtti"
)

var (
	typesPE        string
	typesPID       int
	typesRoots     []string
	typesChainHead string
	typesKinds     []string
	typesAll       bool
	typesWidth     int
	typesHierarchy bool
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the types reachable from the target's registrations",
	Long: `Types scans the target like dump does and prints one row per
discovered type instead of writing files. By default only the kinds that
appear in the catalog are listed. With --hierarchy the classes are listed
bases-first together with their inheritance depth and direct bases.

Example:
  rttidump types --pe HorizonForbiddenWest.exe --root 0x1434F1230 --kind enum --kind "enum flags"`,
	RunE: runTypes,
}

func init() {
	typesCmd.Flags().StringVar(&typesPE, "pe", "", "Read records from this PE image")
	typesCmd.Flags().IntVar(&typesPID, "pid", 0, "Read records from this running process")
	typesCmd.Flags().StringSliceVar(&typesRoots, "root", nil, "Additional root record address (hex, repeatable)")
	typesCmd.Flags().StringVar(&typesChainHead, "chain-head", "", "Override the registration chain head (hex)")
	typesCmd.Flags().StringArrayVar(&typesKinds, "kind", nil, "Only list this kind (repeatable)")
	typesCmd.Flags().BoolVar(&typesAll, "all", false, "Include references, containers and PODs")
	typesCmd.Flags().IntVar(&typesWidth, "width", 64, "Truncate names wider than this many cells (0 disables)")
	typesCmd.Flags().BoolVar(&typesHierarchy, "hierarchy", false, "List classes bases-first with their inheritance depth")
	typesCmd.MarkFlagsMutuallyExclusive("pe", "pid")
	typesCmd.MarkFlagsMutuallyExclusive("hierarchy", "kind")
	typesCmd.MarkFlagsMutuallyExclusive("hierarchy", "all")

	rootCmd.AddCommand(typesCmd)
}

// kindFilter reports whether a kind is listed.
type kindFilter func(rtti.Kind) bool

func newKindFilter(labels []string, all bool) (kindFilter, error) {
	if len(labels) == 0 {
		return func(k rtti.Kind) bool { return all || k.Exported() }, nil
	}
	want := make(map[rtti.Kind]bool, len(labels))
	for _, l := range labels {
		k, err := rtti.ParseKind(l)
		if err != nil {
			return nil, err
		}
		want[k] = true
	}
	return func(k rtti.Kind) bool { return want[k] }, nil
}

// listTypes selects and orders the rows of the listing.
func listTypes(snapshot []*rtti.Type, keep kindFilter) []*rtti.Type {
	out := make([]*rtti.Type, 0, len(snapshot))
	for _, t := range snapshot {
		if keep(t.Kind()) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if pa, pb := a.Kind().Priority(), b.Kind().Priority(); pa != pb {
			return pa < pb
		}
		if da, db := rtti.Describe(a), rtti.Describe(b); da != db {
			return da < db
		}
		return a.Addr() < b.Addr()
	})
	return out
}

func runTypes(cmd *cobra.Command, args []string) error {
	keep, err := newKindFilter(typesKinds, typesAll)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyScanFlags(cfg, typesPE, typesPID, typesRoots, typesChainHead)
	if err := cfg.ValidateScan(); err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	tgt, err := openTarget(cfg)
	if err != nil {
		return err
	}
	ctx, stop := database.SetupSignalHandler(commandContext(cmd), nil)
	defer stop()

	res, err := tgt.scan(ctx, cfg, log)
	if err != nil {
		return err
	}

	if typesHierarchy {
		tbl, err := hierarchyTable(res.snapshot, typesWidth)
		if err != nil {
			return err
		}
		if err := tbl.render(cmd.OutOrStdout()); err != nil {
			return err
		}
		cmd.Printf("\n%d classes\n", len(tbl.rows))
		return nil
	}

	rows := listTypes(res.snapshot, keep)
	tbl := &table{header: []string{"KIND", "ID", "ADDRESS", "NAME"}, maxWidth: typesWidth}
	for _, t := range rows {
		tbl.add(t.Kind().String(), strconv.FormatUint(uint64(t.ID()), 10), fmt.Sprintf("0x%X", t.Addr()), rtti.Describe(t))
	}
	if err := tbl.render(cmd.OutOrStdout()); err != nil {
		return err
	}
	cmd.Printf("\n%d of %d types\n", len(rows), len(res.snapshot))
	return nil
}

// hierarchyTable lists the classes of snapshot bases-first. Names are
// indented by inheritance depth.
func hierarchyTable(snapshot []*rtti.Type, width int) (*table, error) {
	g := graph.FromTypes(snapshot)
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	tbl := &table{header: []string{"DEPTH", "CLASS", "BASES"}, maxWidth: width}
	for _, l := range levels {
		tbl.add(strconv.Itoa(l.Depth), strings.Repeat("  ", l.Depth)+l.Name, strings.Join(g.GetParents(l.Name), ", "))
	}
	return tbl, nil
}
