package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lazyimg/pkg/html"
	"lazyimg/pkg/lazyload"
)

type imageReport struct {
	ID         string `json:"id,omitempty"`
	State      string `json:"state"`
	Pending    string `json:"pending,omitempty"`
	Srcset     string `json:"srcset,omitempty"`
	CurrentSrc string `json:"currentSrc,omitempty"`
	Loading    bool   `json:"loading"`
}

type stepReport struct {
	ScrollY   float64  `json:"scrollY"`
	Triggered []string `json:"triggered"`
}

type scanReport struct {
	URI     string             `json:"uri"`
	Session string             `json:"session"`
	Srcset  bool               `json:"srcset"`
	Steps   []stepReport       `json:"steps"`
	Images  []imageReport      `json:"images"`
	Metrics map[string]float64 `json:"metrics"`
}

func scanCmd(opts *options) *cobra.Command {
	var (
		scroll []int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "scan <file-or-url>",
		Short: "Report which images load at each scroll position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			report, err := runScan(ctx, args[0], scroll, opts, cmd)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&scroll, "scroll", nil, "Scroll offsets to visit in order, e.g. 0,800,1600")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func runScan(ctx context.Context, uri string, scroll []int, opts *options, cmd *cobra.Command) (*scanReport, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
	s, err := openSession(ctx, uri, opts, logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	report := &scanReport{
		URI:     uri,
		Session: s.page.SessionID(),
		Srcset:  s.page.SupportsSrcset(),
	}

	seen := make(map[*html.Node]bool)
	record := func(y float64) {
		step := stepReport{ScrollY: y, Triggered: []string{}}
		for _, l := range s.loaders {
			for _, img := range l.Images() {
				if l.State(img) != lazyload.Unloaded && !seen[img] {
					seen[img] = true
					step.Triggered = append(step.Triggered, imageLabel(img))
				}
			}
		}
		report.Steps = append(report.Steps, step)
	}

	record(s.page.ScrollY())
	for _, y := range scroll {
		got, err := s.scrollTo(ctx, float64(y))
		if err != nil {
			return nil, err
		}
		record(got)
	}

	for _, l := range s.loaders {
		for _, img := range l.Images() {
			pending, _ := img.GetAttribute(lazyload.PendingAttr)
			srcset, _ := img.GetAttribute("srcset")
			report.Images = append(report.Images, imageReport{
				ID:         img.Attributes["id"],
				State:      l.State(img).String(),
				Pending:    pending,
				Srcset:     srcset,
				CurrentSrc: s.page.CurrentSrc(img),
				Loading:    hasLoadingAncestor(img, l.Config().LoadingClass),
			})
		}
	}

	if report.Metrics, err = s.metrics(); err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	return report, nil
}

func printReport(w io.Writer, r *scanReport) {
	fmt.Fprintf(w, "%s (session %s)\n", r.URI, r.Session)
	if !r.Srcset {
		fmt.Fprintln(w, "srcset unsupported: loader not initialized")
	}
	for _, step := range r.Steps {
		triggered := "-"
		if len(step.Triggered) > 0 {
			triggered = strings.Join(step.Triggered, ", ")
		}
		fmt.Fprintf(w, "scroll %-6v triggered: %s\n", step.ScrollY, triggered)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tSTATE\tLOADING\tCURRENT")
	for _, img := range r.Images {
		id := img.ID
		if id == "" {
			id = "(anonymous)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", id, img.State, img.Loading, shorten(img.CurrentSrc, 60))
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, name := range sortedKeys(r.Metrics) {
		fmt.Fprintf(w, "%s %v\n", name, r.Metrics[name])
	}
}

func imageLabel(img *html.Node) string {
	if id := img.Attributes["id"]; id != "" {
		return "#" + id
	}
	if v, _ := img.GetAttribute(lazyload.PendingAttr); v != "" {
		return shorten(v, 40)
	}
	return "img"
}

// hasLoadingAncestor reports whether the loading class is still set on img
// or an ancestor below body.
func hasLoadingAncestor(img *html.Node, cls string) bool {
	for el := img; el != nil && el.TagName != "body" && el.TagName != html.RootTag; el = el.Parent {
		if el.HasClass(cls) {
			return true
		}
	}
	return false
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
