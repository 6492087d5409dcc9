package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/otic/internal/match"
	"github.com/jmylchreest/otic/internal/similarity"
)

func newMatchCmd(a *app) *cobra.Command {
	var (
		tenant string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "match <image>",
		Short: "Rank a tenant's catalog against an image",
		Long: `Fingerprint an image and compare it against every token in the tenant's
catalog. Products scoring at or above the threshold are listed best first.
Every comparison is recorded as a similarity observation.

Examples:
  otic match --tenant shop-1 frame.jpg
  otic match --tenant shop-1 --threshold 0.9 --json frame.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detected, err := a.buildToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			svc, err := match.NewService(similarity.Default(), a.cfg.Match,
				match.WithLogger(a.logger.Named("match")),
				match.WithStore(store),
				match.WithSink(store),
			)
			if err != nil {
				return err
			}

			res, err := svc.MatchTenant(cmd.Context(), tenant, detected)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			printMatches(out, res, a.cfg.Match.Threshold)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant ID (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func printMatches(w io.Writer, res match.Result, threshold float64) {
	d := res.Diagnostics
	if len(res.Matches) == 0 {
		fmt.Fprintf(w, "No matches at or above %.2f (%d compared).\n", threshold, d.Considered)
	} else {
		table := NewTable("#", "Product", "Score")
		table.AlignRight(0, 2)
		for i, m := range res.Matches {
			table.AddRow(fmt.Sprintf("%d", i+1), m.ProductID, fmt.Sprintf("%.4f", m.SimilarityScore))
		}
		fmt.Fprint(w, table.String())
		fmt.Fprintf(w, "\n%d of %d products matched at or above %.2f.\n", len(res.Matches), d.Considered, threshold)
	}

	if d.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d unreadable tokens: %v\n", d.Skipped, d.SkippedIDs)
	}
	if d.SinkFailures > 0 {
		fmt.Fprintf(w, "Failed to record %d observations.\n", d.SinkFailures)
	}
}
