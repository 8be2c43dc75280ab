package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// papersCmd groups the paper intake queue commands.
var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Manage the paper intake queue",
}

// papersAddCmd queues a PDF for upstream extraction.
var papersAddCmd = &cobra.Command{
	Use:   "add <pdf-file>",
	Short: "Queue an uploaded PDF for extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		pf, err := eng.RegisterPaperFile(context.Background(), args[0], "")
		if err != nil {
			return err
		}
		fmt.Printf("queued %s (%s)\n", pf.Filename, pf.ID)
		if pf.Title != "" {
			fmt.Printf("  title: %s\n", pf.Title)
		}
		if pf.Pages > 0 {
			fmt.Printf("  pages: %d\n", pf.Pages)
		}
		return nil
	},
}

// papersLsCmd lists the intake queue.
var papersLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List queued paper files",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		files, err := eng.ListPaperFiles(context.Background())
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("queue is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILENAME\tTITLE\tPAGES\tSTATUS\tADDED")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				f.ID, f.Filename, f.Title, f.Pages, f.Status, f.CreatedAt)
		}
		return w.Flush()
	},
}

func init() {
	papersCmd.AddCommand(papersAddCmd)
	papersCmd.AddCommand(papersLsCmd)
	rootCmd.AddCommand(papersCmd)
}
