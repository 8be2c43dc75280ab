package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papergraph/papergraph/views"
)

var searchLimit int

// searchCmd runs a full-text query over node labels.
var searchCmd = &cobra.Command{
	Use:   "search <snapshot-id> <query>",
	Short: "Full-text search over node labels",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		hits, err := eng.Search(context.Background(), args[0], args[1], searchLimit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, h := range hits {
			merged := ""
			if h.IsMerged {
				merged = " (merged)"
			}
			fmt.Printf("%s [%s]%s %s\n", h.NodeID, h.Type, merged, views.Truncate(h.Label, labelWidth))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default: engine config)")
	rootCmd.AddCommand(searchCmd)
}
