package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/guideparse/internal/doctree"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReconstructCommand(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	md := writeFile(t, dir, "guide.md", "# Assessment\n\nUse the 4AT on admission.\n")
	bad := writeFile(t, dir, "slides.pptx", "x")

	out, err := run(t, "reconstruct", "--local", "--out", outDir, "--chunks", md, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("expected one failure, got %v", err)
	}
	if !strings.Contains(out, "guide.md") || !strings.Contains(out, "slides.pptx") {
		t.Errorf("expected both files in output, got %q", out)
	}

	report, err := os.ReadFile(filepath.Join(outDir, "guide.txt"))
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}
	if !strings.Contains(string(report), "SECTION 1: Assessment\n") ||
		!strings.Contains(string(report), "Assessment\n\nUse the 4AT on admission.") {
		t.Errorf("unexpected report %q", report)
	}
	if strings.Contains(string(report), "SECTION 2") {
		t.Errorf("expected one title run, got %q", report)
	}

	b, err := os.ReadFile(filepath.Join(outDir, "guide.chunks.json"))
	if err != nil {
		t.Fatalf("expected chunks file: %v", err)
	}
	var chunks []doctree.Chunk
	if err := json.Unmarshal(b, &chunks); err != nil || len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d (%v)", len(chunks), err)
	}
}

func TestReconstructCommand_SameBaseNames(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	inputs := []string{
		writeFile(t, dir, "a/guide.md", "Alpha text."),
		writeFile(t, dir, "b/guide.md", "Beta text."),
		writeFile(t, dir, "guide.txt", "Gamma text."),
	}
	outDir := filepath.Join(dir, "out")

	args := append([]string{"reconstruct", "--local", "--out", outDir}, inputs...)
	if _, err := run(t, args...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"guide.txt":   "Alpha text.",
		"guide-2.txt": "Beta text.",
		"guide-3.txt": "Gamma text.",
	}
	for name, body := range want {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Errorf("expected report %s: %v", name, err)
			continue
		}
		if !strings.Contains(string(b), body) {
			t.Errorf("%s: expected %q, got %q", name, body, b)
		}
	}
}

func TestOutputNames(t *testing.T) {
	got := outputNames([]string{"x/guide.md", "guide-2.txt", "y/guide.pdf", "notes.txt"})
	want := []string{"guide", "guide-2", "guide-3", "notes"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFragmentsCommandFeedsReconstruct(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "notes.txt", "First paragraph.\n\nSecond paragraph.")

	out, err := run(t, "fragments", "--local", txt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var raw []doctree.RawFragment
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		t.Fatalf("expected JSON array, got %q: %v", out, err)
	}
	if len(raw) != 2 || raw[1].Text != "Second paragraph." {
		t.Fatalf("unexpected fragments %+v", raw)
	}

	frags := writeFile(t, dir, "notes.json", out)
	outDir := filepath.Join(dir, "out")
	if _, err := run(t, "reconstruct", "--out", outDir, frags); err != nil {
		t.Fatalf("reconstruct from fragments: %v", err)
	}
	report, err := os.ReadFile(filepath.Join(outDir, "notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(report), "First paragraph. Second paragraph.") {
		t.Errorf("expected merged paragraph, got %q", report)
	}
}

func TestPseudoXMLCommand(t *testing.T) {
	dir := t.TempDir()
	tei := writeFile(t, dir, "g.tei.xml",
		`<TEI><teiHeader><fileDesc><titleStmt><title>G</title></titleStmt></fileDesc></teiHeader><text><body><div><head>H</head></div></body></text></TEI>`)

	out, err := run(t, "pseudoxml", tei)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<docTitle>G</docTitle>\n\n<sectionHeader>H</sectionHeader>\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestCheckCommand_GrobidDisabled(t *testing.T) {
	if _, err := run(t, "check", "--local"); err != errGrobidDisabled {
		t.Errorf("expected errGrobidDisabled, got %v", err)
	}
}
