package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser is the local PDF path used when GROBID is disabled or
// unavailable. It reads text with ledongthuc/pdf and, when enabled, retries
// with pdftotext. Each paragraph becomes an untitled node on its page.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf wants a file path.
	path, cleanup, err := spool(r, "guideparse-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pages, err := pdfPages(path)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		out, ferr := pdftotext(path)
		switch {
		case ferr == nil:
			pages, err = strings.Split(out, "\f"), nil
		case err != nil:
			err = fmt.Errorf("%w (fallback: %w)", err, ferr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: trimExt(filename, ".pdf")}
	for i, page := range pages {
		paras, err := splitParagraphs(page)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", i+1, err)
		}
		for _, para := range paras {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: para, Page: i + 1})
		}
	}
	return tree, nil
}

// pdfPages returns the plain text of every page; unreadable pages are empty.
func pdfPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i] = text
	}
	return pages, nil
}

func pdftotext(path string) (string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// spool copies r into a temp file for libraries and tools that need a path.
func spool(r io.Reader, pattern string) (string, func(), error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { os.Remove(path) }

	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	return path, cleanup, nil
}
