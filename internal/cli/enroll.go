package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/otic/internal/image"
)

func newEnrollCmd(a *app) *cobra.Command {
	var (
		tenant  string
		product string
		meta    []string
	)

	cmd := &cobra.Command{
		Use:   "enroll <image|directory>",
		Short: "Store catalog product tokens",
		Long: `Fingerprint a product image and store its token in the tenant's catalog.
Enrolling an existing product replaces its token and metadata.

When given a directory, every supported image in it is enrolled and the
product ID is taken from the file name without its extension.

Examples:
  # Enroll one product with metadata
  otic enroll --tenant shop-1 --product mug-red --meta name="Red mug" --meta sku=MR-01 mug.jpg

  # Enroll a directory of product photos (IDs from file names)
  otic enroll --tenant shop-1 ./catalog/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}

			items, err := enrollItems(args[0], product)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, it := range items {
				tok, err := a.buildToken(cmd.Context(), it.path)
				if err != nil {
					return fmt.Errorf("failed to enroll %s: %w", it.path, err)
				}
				if err := store.PutToken(cmd.Context(), tenant, it.productID, metadata, tok); err != nil {
					return fmt.Errorf("failed to enroll %s: %w", it.productID, err)
				}
				if !a.quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "enrolled %s (%s) for tenant %s\n", it.productID, tok.Hash(), tenant)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant ID (required)")
	cmd.Flags().StringVar(&product, "product", "", "product ID (default: image file name)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "product metadata as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

type enrollItem struct {
	path      string
	productID string
}

func enrollItems(path, product string) ([]enrollItem, error) {
	if !image.IsURL(path) {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", path, err)
		}
		if info.IsDir() {
			if product != "" {
				return nil, fmt.Errorf("--product cannot be used when enrolling a directory")
			}
			files, err := image.ScanDirectoryForImages(path)
			if err != nil {
				return nil, err
			}
			items := make([]enrollItem, 0, len(files))
			for _, f := range files {
				items = append(items, enrollItem{path: f, productID: image.ProductID(f)})
			}
			return items, nil
		}
	}

	if product == "" {
		product = image.ProductID(path)
	}
	return []enrollItem{{path: path, productID: product}}, nil
}

// parseMetadata turns key=value pairs into a metadata map.
func parseMetadata(pairs []string) (map[string]any, error) {
	metadata := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", p)
		}
		metadata[key] = value
	}
	return metadata, nil
}
