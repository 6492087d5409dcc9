// Package cli provides the command-line interface for otic.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/otic/internal/config"
	"github.com/jmylchreest/otic/internal/version"
)

// app carries state shared by every subcommand.
type app struct {
	cfg     config.Config
	loadErr error
	verbose bool
	quiet   bool
	logger  hclog.Logger
}

// NewRootCmd builds the otic command tree. Configuration is read from
// config.env and OTIC_* variables first so flags can override it.
func NewRootCmd() *cobra.Command {
	a := &app{logger: hclog.NewNullLogger()}
	a.cfg, a.loadErr = config.Load()
	if a.loadErr != nil {
		a.cfg = config.Default()
	}

	rootCmd := &cobra.Command{
		Use:   "otic",
		Short: "Identify catalog products from camera frames by colour fingerprint",
		Long: `otic derives an RGB token from an image's colour statistics and spatial
layout, stores tokens for a tenant's product catalog, and ranks catalog
products against new frames by weighted similarity. No model training
is involved.

Supported image formats: JPEG, PNG, GIF, WebP`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.loadErr != nil {
				return fmt.Errorf("failed to load configuration: %w", a.loadErr)
			}
			a.logger = newLogger(cmd.ErrOrStderr(), a.verbose, a.quiet)
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	config.BindFlags(rootCmd.PersistentFlags(), &a.cfg)

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTokenCmd(a),
		newEnrollCmd(a),
		newMatchCmd(a),
		newCompareCmd(a),
		newObservationsCmd(a),
	)

	return rootCmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Warn
	switch {
	case quiet:
		level = hclog.Off
	case verbose:
		level = hclog.Debug
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "otic",
		Output: w,
		Level:  level,
		Color:  hclog.AutoColor,
	})
}

// colourEnabled reports whether w is a terminal that should get ANSI
// colour swatches.
func colourEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
