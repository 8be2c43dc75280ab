package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// snapshotsCmd lists stored snapshots.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List graph snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		snaps, err := eng.ListSnapshots(context.Background())
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("no snapshots")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tNODES\tEDGES\tMERGED\tCREATED")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				s.ID, s.Name, s.Status, s.Counts.Nodes, s.Counts.Edges, s.Counts.Merged, s.CreatedAt)
		}
		return w.Flush()
	},
}

// snapshotsRmCmd deletes a snapshot.
var snapshotsRmCmd = &cobra.Command{
	Use:   "rm <snapshot-id>",
	Short: "Delete a snapshot and its graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.DeleteSnapshot(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	snapshotsCmd.AddCommand(snapshotsRmCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
