package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnemet/html2deck/internal/pptx"
)

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <file.pptx>",
		Short: "List the slides of a presentation with their text and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := pptx.Inspect(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}

			fmt.Fprintf(out, "Title:   %s\nAuthor:  %s\nSubject: %s\nSlides:  %d\n", d.Title, d.Author, d.Subject, len(d.Slides))
			for _, s := range d.Slides {
				fmt.Fprintf(out, "\n[%d] %s\n", s.SlideNumber, s.Part)
				for _, line := range strings.Split(s.Text, "\n") {
					if line != "" {
						fmt.Fprintf(out, "  %s\n", line)
					}
				}
				for _, n := range s.Notes {
					fmt.Fprintf(out, "  notes: %s\n", n)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <file.pptx> <dir>",
		Short: "Render slide thumbnails with LibreOffice and pdftoppm",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			pngs, err := pptx.RenderThumbnails(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			for _, p := range pngs {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			a.logger.Info("thumbnails written", zap.String("dir", args[1]), zap.Int("count", len(pngs)))
			return nil
		},
	}
}
