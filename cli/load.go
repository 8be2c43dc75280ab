package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papergraph/papergraph"
)

var (
	loadName    string
	loadReplace bool
)

// loadCmd consolidates an extraction record file into a snapshot.
var loadCmd = &cobra.Command{
	Use:   "load <record-file>",
	Short: "Consolidate an extraction record into a graph snapshot",
	Long: `Decode an extraction record (JSON or YAML), merge duplicate claims and
observations into canonical nodes, normalize the links, and store the
result as a new snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		var opts []papergraph.LoadOption
		if loadName != "" {
			opts = append(opts, papergraph.WithSnapshotName(loadName))
		}
		if loadReplace {
			opts = append(opts, papergraph.WithReplace())
		}

		ctx := context.Background()
		id, err := eng.LoadRecord(ctx, args[0], opts...)
		if err != nil {
			return err
		}

		snap, err := eng.Snapshot(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("snapshot %s (%s)\n", snap.ID, snap.Name)
		fmt.Printf("  papers: %d  claims: %d  observations: %d  methods: %d\n",
			snap.Counts.Papers, snap.Counts.Claims, snap.Counts.Observations, snap.Counts.Methods)
		fmt.Printf("  nodes: %d  edges: %d  merged: %d", snap.Counts.Nodes, snap.Counts.Edges, snap.Counts.Merged)
		if snap.Counts.Conflicts > 0 {
			fmt.Printf("  type-conflicts: %d", snap.Counts.Conflicts)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadName, "name", "", "snapshot name (default: record filename)")
	loadCmd.Flags().BoolVar(&loadReplace, "replace", false, "delete any prior snapshot with the same name")
	rootCmd.AddCommand(loadCmd)
}
