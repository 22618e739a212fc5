package main

import (
	"github.com/spf13/cobra"

	"github.com/gnemet/html2deck/internal/deck"
	"github.com/gnemet/html2deck/internal/watch"
)

func (a *app) runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	_, err := deck.NewBuilder(a.cfg, cmd.OutOrStdout(), a.logger).Build(ctx)
	return err
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	b := deck.NewBuilder(a.cfg, cmd.OutOrStdout(), a.logger)
	w := watch.New(a.cfg.Deck.SlidesPath(), a.cfg.Deck.Slides, a.cfg.Watch.Debounce, b.Build, a.logger)
	return w.Start(ctx)
}
