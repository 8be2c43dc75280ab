package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papergraph/papergraph/views"
)

// evidenceCmd prints the evidence landscape around a claim.
var evidenceCmd = &cobra.Command{
	Use:   "evidence <snapshot-id> <claim-id>",
	Short: "Show the observations supporting, contradicting, or contextualizing a claim",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx := context.Background()
		ev, err := eng.Evidence(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if ev.Counts.Total == 0 {
			fmt.Printf("no evidence linked to %s\n", args[1])
			return nil
		}

		fmt.Printf("evidence for %s: %d supporting, %d contradicting, %d contextualizing (%d total)\n",
			ev.ClaimID, ev.Counts.Supports, ev.Counts.Contradicts, ev.Counts.Contextualizes, ev.Counts.Total)
		if ev.Provenance != "" {
			fmt.Printf("methods: %d, %s\n", ev.MethodCount, ev.Provenance)
		}
		for _, group := range ev.Groups {
			fmt.Printf("\n%s (%d):\n", group.Type, group.Count)
			for _, mg := range group.Methods {
				if mg.MethodID == views.NoMethod {
					fmt.Println("  (no method)")
				} else {
					fmt.Printf("  method %s: %s\n", mg.MethodID, views.Truncate(mg.MethodLabel, labelWidth))
				}
				for _, item := range mg.Items {
					fmt.Printf("    %s: %s\n", item.ObservationID, views.Truncate(item.Label, labelWidth))
				}
			}
		}
		return nil
	},
}

// connectedCmd is the observation-side mirror of evidence.
var connectedCmd = &cobra.Command{
	Use:   "connected <snapshot-id> <observation-id>",
	Short: "Show the claims linked to an observation, grouped by relation type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		groups, err := eng.ConnectedClaims(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Printf("no claims linked to %s\n", args[1])
			return nil
		}
		for _, group := range groups {
			fmt.Printf("%s (%d):\n", group.Type, len(group.Claims))
			for _, c := range group.Claims {
				fmt.Printf("  %s: %s\n", c.NodeID, views.Truncate(c.Label, labelWidth))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	rootCmd.AddCommand(connectedCmd)
}
