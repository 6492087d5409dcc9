package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/otic/internal/similarity"
)

func newCompareCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <detected> <reference>",
		Short: "Show the similarity breakdown between two images",
		Long: `Compare two images directly and print each sub-score. The score is not
symmetric: the first image's dominant colours are searched for in the
second, as a detected frame is searched for in a catalog item.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			detected, err := a.buildToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reference, err := a.buildToken(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			scores := similarity.Default().Breakdown(detected, reference)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, scores)
			}
			printBreakdown(out, scores, similarity.DefaultWeights(), a.cfg.Match.Threshold)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

func printBreakdown(w io.Writer, s similarity.Scores, weights similarity.Weights, threshold float64) {
	table := NewTable("Component", "Weight", "Score")
	table.AlignRight(1, 2)
	for _, part := range []struct {
		name   string
		weight float64
		score  similarity.SubScore
	}{
		{"histogram", weights.Histogram, s.Histogram},
		{"dominant colours", weights.Dominant, s.Dominant},
		{"spatial", weights.Spatial, s.Spatial},
	} {
		value := "n/a"
		if part.score.Computed {
			value = fmt.Sprintf("%.4f", part.score.Value)
		}
		table.AddRow(part.name, fmt.Sprintf("%.2f", part.weight), value)
	}
	fmt.Fprint(w, table.String())

	verdict := "no match"
	if s.Total >= threshold {
		verdict = "match"
	}
	fmt.Fprintf(w, "\nSimilarity: %.4f (%s at %.2f)\n", s.Total, verdict, threshold)
}
