package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// CSVParser handles CSV exports such as recommendation tables. Rows are
// rendered as pipe-separated lines under a heading per batch.
type CSVParser struct{}

const csvBatchRows = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	o := newOutline()
	if len(records) > 0 {
		header := pipeRow(records[0])
		rows := records[1:]
		for start := 0; start < len(rows); start += csvBatchRows {
			end := min(start+csvBatchRows, len(rows))
			// Line numbers are 1-based and skip the header line.
			o.heading(1, fmt.Sprintf("Rows %d-%d", start+2, end+1))
			lines := []string{header}
			for _, row := range rows[start:end] {
				lines = append(lines, pipeRow(row))
			}
			o.text(strings.Join(lines, "\n"))
		}
	}
	return o.tree(trimExt(filename, ".csv")), nil
}

func pipeRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
