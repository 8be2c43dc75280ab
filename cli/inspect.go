package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papergraph/papergraph/views"
)

// labelWidth bounds node text in terminal output.
const labelWidth = 100

// inspectCmd shows one node with its surroundings.
var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot-id> <node-id>",
	Short: "Show a node, its merge history, neighbors, and variants",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx := context.Background()
		snapshotID, nodeID := args[0], args[1]

		g, err := eng.Graph(ctx, snapshotID)
		if err != nil {
			return err
		}
		node, ok := g.Node(nodeID)
		if !ok {
			return fmt.Errorf("node %s not found in snapshot %s", nodeID, snapshotID)
		}

		fmt.Printf("%s [%s]\n", node.ID, node.Type)
		fmt.Printf("  %s\n", views.Truncate(node.Label, labelWidth))
		if len(node.PaperIDs) > 0 {
			for _, pid := range node.PaperIDs {
				if p, found := g.Paper(pid); found {
					fmt.Printf("  paper: %s — %s\n", pid, views.Citation(p))
				} else {
					fmt.Printf("  paper: %s\n", pid)
				}
			}
		}
		if node.IsMerged {
			fmt.Printf("  merged from %s\n", strings.Join(node.MergedIDs, ", "))
			for _, m := range node.Members {
				fmt.Printf("    %s: %s\n", m.ID, views.Truncate(m.Label, labelWidth))
			}
		}

		neighbors, err := eng.Neighbors(ctx, snapshotID, nodeID)
		if err != nil {
			return err
		}
		if len(neighbors) > 0 {
			fmt.Printf("  neighbors (%d):\n", len(neighbors))
			for _, nid := range neighbors {
				if n, found := g.Node(nid); found {
					fmt.Printf("    %s [%s] %s\n", nid, n.Type, views.Truncate(n.Label, labelWidth))
				}
			}
		}

		variants, err := eng.Variants(ctx, snapshotID, nodeID)
		if err != nil {
			return err
		}
		if len(variants) > 0 {
			fmt.Printf("  variants (%d):\n", len(variants))
			for _, v := range variants {
				fmt.Printf("    %s: %s\n", v.NodeID, views.Truncate(v.Label, labelWidth))
				if v.Reasoning != "" {
					fmt.Printf("      %s\n", views.Truncate(v.Reasoning, labelWidth))
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
