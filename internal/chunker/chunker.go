package chunker

import (
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // A trailing chunk smaller than this is folded into its predecessor.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = min(d.ChunkOverlap, c.ChunkSize/4)
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// piece is a unit of section text that fits in one chunk.
type piece struct {
	text  string
	title string
	page  int
}

// ChunkSections packs reconstructed sections, in order, into chunks of
// about cfg.ChunkSize tokens. Sections larger than a chunk are split on
// sentence boundaries. Each chunk lists the section titles it covers and
// the page range of its text.
func ChunkSections(secs []doctree.Section, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()

	var pieces []piece
	for _, s := range secs {
		content := strings.TrimSpace(s.Content)
		if content == "" {
			continue
		}
		if EstimateTokens(content) <= cfg.ChunkSize {
			pieces = append(pieces, piece{text: content, title: s.Title, page: s.Page})
			continue
		}
		for _, part := range splitBySentences(content, cfg.ChunkSize) {
			pieces = append(pieces, piece{text: part, title: s.Title, page: s.Page})
		}
	}

	var chunks []doctree.Chunk
	var b builder
	for _, p := range pieces {
		tokens := EstimateTokens(p.text)
		if b.fresh > 0 && b.tokens+tokens > cfg.ChunkSize {
			prev := b.chunk(len(chunks))
			chunks = append(chunks, prev)
			b = builder{}
			if overlap := overlapText(prev.Text, cfg.ChunkOverlap); overlap != "" {
				b.addOverlap(overlap, prev)
			}
		}
		b.add(p, tokens)
	}
	if b.fresh == 0 {
		return chunks
	}

	last := b.chunk(len(chunks))
	if n := len(chunks); n > 0 && EstimateTokens(b.freshText()) < cfg.MinChunk {
		prev := &chunks[n-1]
		prev.Text += "\n\n" + b.freshText()
		prev.PageEnd = max(prev.PageEnd, last.PageEnd)
		for _, title := range last.Breadcrumb {
			prev.Breadcrumb = appendTitle(prev.Breadcrumb, title)
		}
		return chunks
	}
	return append(chunks, last)
}

// builder accumulates pieces for one chunk. Overlap text carried from the
// previous chunk counts toward the size but is not "fresh" content.
type builder struct {
	parts      []string
	overlap    bool
	tokens     int
	fresh      int
	breadcrumb []string
	pageStart  int
	pageEnd    int
}

func (b *builder) addOverlap(text string, prev doctree.Chunk) {
	b.parts = append(b.parts, text)
	b.overlap = true
	b.tokens = EstimateTokens(text)
	b.pageStart, b.pageEnd = prev.PageEnd, prev.PageEnd
	if n := len(prev.Breadcrumb); n > 0 {
		b.breadcrumb = []string{prev.Breadcrumb[n-1]}
	}
}

func (b *builder) add(p piece, tokens int) {
	if b.fresh == 0 && !b.overlap {
		b.pageStart, b.pageEnd = p.page, p.page
	}
	b.pageStart = min(b.pageStart, p.page)
	b.pageEnd = max(b.pageEnd, p.page)
	b.parts = append(b.parts, p.text)
	b.tokens += tokens
	b.fresh++
	if p.title != "" {
		b.breadcrumb = appendTitle(b.breadcrumb, p.title)
	}
}

func (b *builder) freshText() string {
	if b.overlap {
		return strings.Join(b.parts[1:], "\n\n")
	}
	return strings.Join(b.parts, "\n\n")
}

func (b *builder) chunk(index int) doctree.Chunk {
	return doctree.Chunk{
		Text:       strings.Join(b.parts, "\n\n"),
		Index:      index,
		Breadcrumb: b.breadcrumb,
		PageStart:  b.pageStart,
		PageEnd:    b.pageEnd,
	}
}

// appendTitle adds title unless it is already the last breadcrumb entry.
func appendTitle(bc []string, title string) []string {
	if n := len(bc); n > 0 && bc[n-1] == title {
		return bc
	}
	return append(bc, title)
}

// splitBySentences breaks a large section into sentence-aligned parts of at
// most targetTokens, except where a single sentence is larger.
func splitBySentences(text string, targetTokens int) []string {
	var result []string
	var current []string
	currentTokens := 0

	for _, sent := range splitSentences(text) {
		sentTokens := EstimateTokens(sent)
		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, strings.Join(current, " "))
			current = current[:0]
			currentTokens = 0
		}
		current = append(current, sent)
		currentTokens += sentTokens
	}
	if currentTokens > 0 {
		result = append(result, strings.Join(current, " "))
	}
	return result
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && isSpace(text[i+1]) {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

// overlapText returns roughly the last targetTokens worth of words.
func overlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
