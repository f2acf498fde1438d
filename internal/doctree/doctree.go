package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Chunk is a sized text segment with structural context.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Breadcrumb []string `json:"breadcrumb"` // Section titles covered, in order
	PageStart  int      `json:"page_start"`
	PageEnd    int      `json:"page_end"`
}

// Fragment is one unit of extracted content as produced by an extractor.
type Fragment struct {
	Page      int    `json:"page"`
	Paragraph int    `json:"paragraph_index"`
	TitleHint string `json:"section_title_hint,omitempty"` // "" or "None" when absent
	Text      string `json:"text"`
}

// RawFragment is the loosely typed wire form of a Fragment. Pages and Para
// carry whatever the extractor emitted (strings, numbers, page tuples).
type RawFragment struct {
	Pages        any     `json:"pages,omitempty"`
	Para         any     `json:"para,omitempty"`
	SectionTitle *string `json:"section_title,omitempty"`
	Text         string  `json:"text"`
}

// Kind classifies a fragment or section.
type Kind string

const (
	KindHeader    Kind = "header"
	KindParagraph Kind = "paragraph"
	KindTable     Kind = "table"
	KindFigure    Kind = "figure"
)

// Section is a logical block of reconstructed text.
type Section struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Page      int    `json:"page"`      // Page of the first fragment
	Paragraph int    `json:"paragraph"` // Paragraph index of the first fragment
	Kind      Kind   `json:"kind"`
	Fragments int    `json:"fragments"` // Number of fragments merged into Content
}
