// Command lazyimg loads an HTML page into the headless host, runs the lazy
// image loader against it and reports which images were requested as the
// page is scrolled.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lazyimg/pkg/lazyload"
	"lazyimg/pkg/page"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// options are the flags shared by every page command.
type options struct {
	width          float64
	height         float64
	dpr            float64
	containerClass string
	loadingClass   string
	noSrcset       bool
	scripts        bool
	verbose        bool
	timeout        time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "lazyimg",
		Short: "Drive the lazy image loader against an HTML page",
		Long: `lazyimg loads a page from a file or URL, lays it out in a headless
viewport and initializes the lazy image loader on it.

Images inside containers carrying the container class keep their real
sources in data-lazyload until they scroll into view.

Examples:
  lazyimg scan page.html --scroll 0,800,1600
  lazyimg scan https://example.com --json
  lazyimg snapshot page.html -o out.png --scroll 1200`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.Float64Var(&opts.width, "width", page.DefaultWidth, "Viewport width in CSS pixels")
	flags.Float64Var(&opts.height, "height", page.DefaultHeight, "Viewport height in CSS pixels")
	flags.Float64Var(&opts.dpr, "dpr", page.DefaultDevicePixelRatio, "Device pixel ratio used for srcset selection")
	flags.StringVar(&opts.containerClass, "container-class", lazyload.DefaultContainerClass, "Class marking lazy image containers")
	flags.StringVar(&opts.loadingClass, "loading-class", lazyload.DefaultLoadingClass, "Class added while an image is pending")
	flags.BoolVar(&opts.noSrcset, "no-srcset", false, "Simulate a host without srcset support")
	flags.BoolVar(&opts.scripts, "scripts", false, "Run the page's scripts instead of initializing the loader directly")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log loader activity to stderr")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Maximum time to wait for the page and its images")

	rootCmd.AddCommand(
		scanCmd(opts),
		snapshotCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
