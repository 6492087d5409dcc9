package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newObservationsCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "observations",
		Short: "List recent similarity observations",
		Long: `List the most recent comparisons recorded by the match command, newest
first. Observations are kept for threshold tuning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListObservations(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No observations recorded.")
				return nil
			}

			table := NewTable("Observed", "Tenant", "Product", "Token", "Score", "Match")
			table.AlignRight(4)
			for _, r := range records {
				isMatch := "no"
				if r.IsMatch {
					isMatch = "yes"
				}
				table.AddRow(
					r.ObservedAt.Local().Format(time.DateTime),
					r.TenantID,
					r.ProductID,
					r.TokenHash,
					fmt.Sprintf("%.4f", r.SimilarityScore),
					isMatch,
				)
			}
			fmt.Fprint(out, table.String())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum observations to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print observations as JSON")
	return cmd
}
