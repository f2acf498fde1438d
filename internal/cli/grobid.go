package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/guideparse/internal/grobid"
	"github.com/spf13/cobra"
)

var errGrobidDisabled = errors.New("grobid is disabled (set GROBID_URL or drop --local)")

var teiOut string

var teiCmd = &cobra.Command{
	Use:   "tei <pdf>",
	Short: "Send a PDF to GROBID and save the TEI XML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gc := grobidClient()
		if gc == nil {
			return errGrobidDisabled
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		tei, err := gc.ProcessFulltext(cmd.Context(), filepath.Base(args[0]), f, grobid.Options{
			SegmentSentences:  loadedConf.SegmentSentences,
			ConsolidateHeader: loadedConf.ConsolidateHeader,
		})
		if err != nil {
			return err
		}

		if err := os.MkdirAll(teiOut, 0o755); err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		dest := filepath.Join(teiOut, base+".grobid.tei.xml")
		if err := os.WriteFile(dest, tei, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ ")+dest+dimStyle.Render(fmt.Sprintf(" (%d bytes)", len(tei))))
		return nil
	},
}

var pseudoXMLCmd = &cobra.Command{
	Use:   "pseudoxml <tei.xml>",
	Short: "Flatten a TEI file into tagged pseudo-XML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		out, err := grobid.PseudoXML(f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the GROBID server is alive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc := grobidClient()
		if gc == nil {
			return errGrobidDisabled
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := gc.IsAlive(ctx); err != nil {
			return fmt.Errorf("grobid at %s: %w", gc.BaseURL(), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ ")+"grobid is up "+dimStyle.Render(gc.BaseURL()))
		return nil
	},
}

func init() {
	teiCmd.Flags().StringVarP(&teiOut, "out", "o", "output", "Directory for TEI files")
	rootCmd.AddCommand(teiCmd, pseudoXMLCmd, checkCmd)
}
