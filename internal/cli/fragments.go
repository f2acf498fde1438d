package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/guideparse/internal/pipeline"
	"github.com/dgallion1/guideparse/internal/report"
	"github.com/dgallion1/guideparse/internal/sections"
	"github.com/spf13/cobra"
)

var fragmentsText bool

var fragmentsCmd = &cobra.Command{
	Use:   "fragments <file>",
	Short: "Print the raw extracted fragments of a document",
	Long: `Extract fragments without reconstructing them. Output is a JSON array that
the reconstruct command and POST /api/reconstruct accept; --text prints
CONTENT/METADATA blocks instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		job := pipeline.NewJob(filepath.Base(args[0]), "", data, true)
		ex, err := newWorker().Extract(cmd.Context(), job)
		if err != nil {
			return fmt.Errorf("extract %s: %w", args[0], err)
		}
		for _, w := range job.Snapshot().Progress.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("! ")+w)
		}

		out := cmd.OutOrStdout()
		if fragmentsText {
			return report.WriteRaw(out, ex.Fragments)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sections.ToRaw(ex.Fragments))
	},
}

func init() {
	fragmentsCmd.Flags().BoolVar(&fragmentsText, "text", false, "Print fragments as text blocks")
	rootCmd.AddCommand(fragmentsCmd)
}
