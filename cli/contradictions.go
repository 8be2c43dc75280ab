package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papergraph/papergraph/views"
)

// contradictionsCmd lists every node involved in a contradiction.
var contradictionsCmd = &cobra.Command{
	Use:   "contradictions <snapshot-id>",
	Short: "List the nodes involved in contradictions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx := context.Background()
		ids, err := eng.Contradictions(ctx, args[0])
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("no contradictions")
			return nil
		}

		g, err := eng.Graph(ctx, args[0])
		if err != nil {
			return err
		}
		for _, id := range ids {
			if n, ok := g.Node(id); ok {
				fmt.Printf("%s [%s] %s\n", id, n.Type, views.Truncate(n.Label, labelWidth))
			} else {
				fmt.Println(id)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contradictionsCmd)
}
