package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lazyimg/pkg/paint"
)

func snapshotCmd(opts *options) *cobra.Command {
	var (
		output    string
		scroll    int
		highlight bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot <file-or-url>",
		Short: "Render the viewport to PNG after scrolling",
		Long: `Render the viewport to a PNG once the images triggered at the given
scroll offset have loaded. Images that are still pending are drawn as
grey placeholders.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			s, err := openSession(ctx, args[0], opts, newLogger(cmd.ErrOrStderr(), opts.verbose))
			if err != nil {
				return err
			}
			defer s.Close()

			y, err := s.scrollTo(ctx, float64(scroll))
			if err != nil {
				return err
			}

			var paintOpts []paint.Option
			if highlight {
				paintOpts = append(paintOpts, paint.WithHighlight(opts.loadingClass))
			}
			vp := s.page.Viewport()
			r := paint.NewRenderer(int(vp.Width), int(vp.Height), paintOpts...)
			r.Render(s.page)
			if err := r.SavePNG(output); err != nil {
				return fmt.Errorf("saving %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s at scroll %v to %s\n", args[0], y, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "snapshot.png", "Output PNG file")
	cmd.Flags().IntVar(&scroll, "scroll", 0, "Scroll offset before rendering")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "Outline elements that still carry the loading class")
	return cmd
}
