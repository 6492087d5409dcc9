package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/otic/internal/colour"
	"github.com/jmylchreest/otic/internal/fingerprint"
	"github.com/jmylchreest/otic/internal/image"
	"github.com/jmylchreest/otic/internal/storage"
)

func newTokenCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "token <image>",
		Short: "Print the colour fingerprint of an image",
		Long: `Generate and print the RGB token for an image: dominant colours,
quadrant profiles, scalar features and the token hash.

Examples:
  # Human-readable summary
  otic token frame.jpg

  # Full token as JSON, including the histogram
  otic token --json https://cdn.example.com/products/mug.webp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.buildToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, tok.Data())
			}
			printTokenSummary(out, tok, colourEnabled(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full token as JSON")
	return cmd
}

// buildToken loads an image and fingerprints it with the configured builder.
func (a *app) buildToken(ctx context.Context, path string) (*fingerprint.RGBToken, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	builder, err := fingerprint.NewBuilder(a.cfg.Fingerprint)
	if err != nil {
		return nil, err
	}

	loader := image.NewSmartLoader(image.WithPrivateHosts(a.cfg.AllowPrivateURLs))
	raw, err := image.LoadRaw(ctx, loader, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	a.logger.Debug("image loaded", "path", path, "width", raw.Width, "height", raw.Height)

	tok := builder.Build(raw)
	if tok.IsDegenerate() {
		a.logger.Warn("image has no opaque pixels; token carries no colour signal", "path", path)
	}
	a.logger.Debug("token built", "path", path, "hash", tok.Hash(), "dominant_colors", len(tok.DominantColors()))
	return tok, nil
}

// openStore opens the configured token database.
func (a *app) openStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(a.cfg.DBPath, storage.Options{
		CompressTokens: a.cfg.CompressTokens,
		Logger:         a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token database %s: %w", a.cfg.DBPath, err)
	}
	return store, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func printTokenSummary(w io.Writer, tok *fingerprint.RGBToken, preview bool) {
	f := tok.ImageFeatures()
	fmt.Fprintf(w, "Hash:         %s\n", tok.Hash())
	fmt.Fprintf(w, "Brightness:   %.3f\n", f.Brightness)
	fmt.Fprintf(w, "Contrast:     %.3f\n", f.Contrast)
	fmt.Fprintf(w, "Temperature:  %.0f\n", f.ColorTemperature)
	fmt.Fprintf(w, "Aspect ratio: %.3f\n", f.AspectRatio)

	dominant := tok.DominantColors()
	fmt.Fprintf(w, "\nDominant colours (%d):\n", len(dominant))
	if len(dominant) > 0 {
		table := NewTable("Colour", "Share")
		table.AlignRight(1)
		for _, c := range dominant {
			table.AddRow(colour.FormatColourWithPreview(c.RGB(), 4, preview), fmt.Sprintf("%.1f%%", c.Percentage*100))
		}
		fmt.Fprint(w, table.String())
	}

	fmt.Fprintln(w, "\nQuadrants:")
	table := NewTable("Quadrant", "Mean", "Share")
	table.AlignRight(2)
	for name, q := range tok.SpatialDistribution().Quadrants() {
		if q == nil {
			table.AddRow(name, "-", "0.0%")
			continue
		}
		table.AddRow(name, colour.FormatColourWithPreview(q.RGB(), 4, preview), fmt.Sprintf("%.1f%%", q.Percentage*100))
	}
	fmt.Fprint(w, table.String())
}
