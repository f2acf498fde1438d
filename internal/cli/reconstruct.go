package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/guideparse/internal/pipeline"
	"github.com/dgallion1/guideparse/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	reconstructOut    string
	reconstructJobs   int
	reconstructChunks bool
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <file>...",
	Short: "Rebuild sections and write a plain-text report per file",
	Long: `Run the full pipeline over each file and write <out>/<name>.txt. Fragment
JSON files (.json) skip extraction and go straight to reconstruction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(reconstructOut, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		w := newWorker()

		outcomes := make([]fileOutcome, len(args))
		names := outputNames(args)
		var g errgroup.Group
		g.SetLimit(max(reconstructJobs, 1))
		for i, path := range args {
			g.Go(func() error {
				outcomes[i] = reconstructFile(cmd.Context(), w, path, names[i], reconstructOut, reconstructChunks)
				return nil
			})
		}
		g.Wait()

		printOutcomes(cmd.OutOrStdout(), outcomes)
		if n := countFailed(outcomes); n > 0 {
			return fmt.Errorf("%d of %d files failed", n, len(outcomes))
		}
		return nil
	},
}

func init() {
	reconstructCmd.Flags().StringVarP(&reconstructOut, "out", "o", "output", "Directory for reports")
	reconstructCmd.Flags().IntVarP(&reconstructJobs, "jobs", "j", 4, "Files processed concurrently")
	reconstructCmd.Flags().BoolVar(&reconstructChunks, "chunks", false, "Also write <name>.chunks.json")
	rootCmd.AddCommand(reconstructCmd)
}

// outputNames picks a distinct report base name per input. Inputs sharing a
// base name get -2, -3, ... suffixes in argument order.
func outputNames(paths []string) []string {
	taken := make(map[string]bool, len(paths))
	names := make([]string, len(paths))
	for i, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

func reconstructFile(ctx context.Context, w *pipeline.Worker, path, base, outDir string, withChunks bool) fileOutcome {
	out := fileOutcome{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		out.Err = err
		return out
	}

	job := pipeline.NewJob(filepath.Base(path), "", data, true)
	w.Process(ctx, job)
	snap := job.Snapshot()
	res := job.Result()
	if res == nil {
		out.Err = fmt.Errorf("%s: %s", snap.Status, strings.Join(snap.Progress.Errors, "; "))
		return out
	}
	out.Source = res.Source
	out.Sections = len(res.Sections)
	out.Chunks = len(res.Chunks)
	out.Warnings = snap.Progress.Errors

	out.Output = filepath.Join(outDir, base+".txt")
	f, err := os.Create(out.Output)
	if err != nil {
		out.Err = err
		return out
	}
	if _, err := report.Write(f, res.Sections); err != nil {
		f.Close()
		out.Err = fmt.Errorf("write report: %w", err)
		return out
	}
	if err := f.Close(); err != nil {
		out.Err = err
		return out
	}

	if withChunks {
		b, err := json.MarshalIndent(res.Chunks, "", "  ")
		if err == nil {
			err = os.WriteFile(filepath.Join(outDir, base+".chunks.json"), b, 0o644)
		}
		if err != nil {
			out.Err = fmt.Errorf("write chunks: %w", err)
		}
	}
	return out
}

func countFailed(outcomes []fileOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
