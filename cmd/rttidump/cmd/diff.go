package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/rttidump/internal/catalog"
)

var (
	diffVerbose bool
	diffFail    bool
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Compare two type catalogs",
	Long: `Diff lists the types that were added, removed or changed between two
catalog files, for example the dumps of two builds of the same game.

Example:
  rttidump diff types-1.0.json types-1.1.json --verbose`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVarP(&diffVerbose, "verbose", "v", false, "Print both versions of changed entries")
	diffCmd.Flags().BoolVar(&diffFail, "exit-code", false, "Fail when the catalogs differ")

	rootCmd.AddCommand(diffCmd)
}

func parseCatalogFile(path string) (*catalog.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	doc, err := catalog.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := parseCatalogFile(args[0])
	if err != nil {
		return err
	}
	after, err := parseCatalogFile(args[1])
	if err != nil {
		return err
	}

	changes, err := catalog.Diff(before, after)
	if err != nil {
		return err
	}

	if !bytes.Equal(compactJSON(before.Spec), compactJSON(after.Spec)) {
		cmd.Printf("%s $spec %s -> %s\n", color.Yellow.Sprint("!"), before.Spec, after.Spec)
	}

	var added, removed, changed int
	for _, c := range changes {
		switch c.Type {
		case catalog.Added:
			added++
			cmd.Printf("%s %s (%s)\n", color.Green.Sprint("+"), c.Name, after.Kind(c.Name))
		case catalog.Removed:
			removed++
			cmd.Printf("%s %s (%s)\n", color.Red.Sprint("-"), c.Name, before.Kind(c.Name))
		case catalog.Changed:
			changed++
			cmd.Printf("%s %s (%s)\n", color.Yellow.Sprint("~"), c.Name, after.Kind(c.Name))
			if diffVerbose {
				cmd.Printf("    %s %s\n", color.Red.Sprint("old:"), compactJSON(c.Old))
				cmd.Printf("    %s %s\n", color.Green.Sprint("new:"), compactJSON(c.New))
			}
		}
	}

	cmd.Printf("\n%d added, %d removed, %d changed (%d -> %d types)\n",
		added, removed, changed, before.Types.Len(), after.Types.Len())

	if diffFail && len(changes) > 0 {
		return fmt.Errorf("catalogs differ")
	}
	return nil
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
