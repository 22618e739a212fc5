package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnemet/html2deck/internal/config"
	"github.com/gnemet/html2deck/internal/logging"
)

// app carries the flag values and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	verbose    bool
	baseDir    string
	output     string
	engine     string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "html2deck",
		Short: "Assemble a PowerPoint deck from HTML slides",
		Long: `html2deck converts an ordered list of HTML slide files into one .pptx
presentation. Each slide is measured, checked against what a slide can
represent and mapped onto native shapes, text boxes and pictures.

Run without arguments to build the configured deck.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if a.baseDir != "" {
				cfg.Deck.BaseDir = a.baseDir
			}
			if a.output != "" {
				cfg.Deck.Output = a.output
			}
			if a.engine != "" {
				cfg.Renderer.Engine = a.engine
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runBuild,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ./config.yaml when present)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&a.baseDir, "base-dir", "", "Directory holding the slides directory and the output")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "", "Output .pptx path, relative to the base directory")
	root.PersistentFlags().StringVar(&a.engine, "engine", "", "Renderer engine: browser or static")

	root.AddCommand(
		&cobra.Command{
			Use:   "build",
			Short: "Build the presentation once",
			Args:  cobra.NoArgs,
			RunE:  a.runBuild,
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Rebuild the presentation whenever a slide changes",
			Args:  cobra.NoArgs,
			RunE:  a.runWatch,
		},
		newInspectCmd(a),
		newPreviewCmd(a),
	)
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	a := &app{}
	if err := newRootCmd(a).Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("html2deck failed", zap.Error(err))
			_ = a.logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
