package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// exportCmd writes a snapshot's graph to a file.
var exportCmd = &cobra.Command{
	Use:   "export <snapshot-id> <output-file>",
	Short: "Export a snapshot's graph (.xlsx, .json, .yaml)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.Export(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
