// Package cli implements the guideparse command line tool: batch section
// reconstruction, fragment dumps and GROBID utilities over local files.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/guideparse/internal/config"
	"github.com/dgallion1/guideparse/internal/grobid"
	"github.com/dgallion1/guideparse/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	grobidURL  string
	useLocal   bool
	verbose    bool
	loadedConf config.Config
)

var rootCmd = &cobra.Command{
	Use:   "guideparse",
	Short: "Rebuild clean sections from clinical guideline documents",
	Long: `guideparse turns PDF, DOCX, HTML, Markdown, CSV and text guidelines into
ordered, deduplicated sections. PDFs are sent to GROBID when it is reachable;
everything else, and PDFs with --local, is parsed in process.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("grobid-url") {
			cfg.GrobidURL = grobidURL
		}
		if useLocal {
			cfg.UseGrobid = false
		}
		loadedConf = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&grobidURL, "grobid-url", "http://localhost:8070", "GROBID server URL (overrides GROBID_URL)")
	rootCmd.PersistentFlags().BoolVar(&useLocal, "local", false, "Parse PDFs locally instead of sending them to GROBID")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// grobidClient returns nil when GROBID is disabled for this run.
func grobidClient() *grobid.Client {
	if !loadedConf.UseGrobid || loadedConf.GrobidURL == "" {
		return nil
	}
	timeout := loadedConf.GrobidTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return grobid.NewClient(loadedConf.GrobidURL, timeout)
}

// newWorker builds a worker with no job store, so every file is processed
// even when two have identical content.
func newWorker() *pipeline.Worker {
	return pipeline.NewWorker(grobidClient(), nil, logger(), pipeline.OptionsFromConfig(loadedConf))
}
