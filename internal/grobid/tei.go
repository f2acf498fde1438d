package grobid

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// Document is the fragment view of a GROBID TEI file.
type Document struct {
	Title     string             `json:"title"`
	Fragments []doctree.Fragment `json:"fragments"`
}

// ParseTEI reads GROBID TEI XML and emits one fragment per sentence (when
// segmentSentences is set) or per paragraph, for every div that has a head.
// Nested divs are visited on their own as well as through their parent, so
// the output can contain repeats; the reconstructor drops them.
func ParseTEI(r io.Reader, segmentSentences bool) (*Document, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if stmt := root.find("titleStmt"); stmt != nil {
		if t := stmt.find("title"); t != nil {
			doc.Title = collapse(t.text())
		}
	}

	for _, div := range root.findAll("div") {
		head := div.find("head")
		if head == nil {
			continue
		}
		title := collapse(head.text())

		for pi, p := range div.findAll("p") {
			sentences := p.findAll("s")
			if segmentSentences {
				for si, s := range sentences {
					page, ok := firstPage(s.attr("coords"))
					if !ok {
						continue
					}
					doc.Fragments = append(doc.Fragments, doctree.Fragment{
						Page:      page,
						Paragraph: si,
						TitleHint: title,
						Text:      collapse(s.text()),
					})
				}
				continue
			}

			page, ok := firstPage(p.attr("coords"))
			var parts []string
			for _, s := range sentences {
				if !ok {
					page, ok = firstPage(s.attr("coords"))
				}
				parts = append(parts, collapse(s.text()))
			}
			text := strings.Join(parts, " ")
			if len(sentences) == 0 {
				text = collapse(p.text())
			}
			doc.Fragments = append(doc.Fragments, doctree.Fragment{
				Page:      page,
				Paragraph: pi,
				TitleHint: title,
				Text:      text,
			})
		}
	}
	return doc, nil
}

// firstPage returns the page of the first box in a TEI coords attribute,
// formatted "page,x,y,w,h;page,x,y,w,h".
func firstPage(coords string) (int, bool) {
	if coords == "" {
		return 0, false
	}
	box, _, _ := strings.Cut(coords, ";")
	pageStr, _, _ := strings.Cut(box, ",")
	page, err := strconv.Atoi(strings.TrimSpace(pageStr))
	if err != nil {
		return 0, false
	}
	return page, true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// node is a minimal element tree. Like lxml, character data before the
// first child lands in lead and data after a child lands in that child's
// tail.
type node struct {
	name     string
	attrs    []xml.Attr
	lead     string
	tail     string
	children []*node
}

func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	root := &node{}
	stack := []*node{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode tei: %w", err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Attr}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(top.children) == 0 {
				top.lead += string(t)
			} else {
				top.children[len(top.children)-1].tail += string(t)
			}
		}
	}
	if len(root.children) == 0 {
		return nil, fmt.Errorf("decode tei: no root element")
	}
	return root, nil
}

func (n *node) attr(name string) string {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// text concatenates all character data below n, excluding n's own tail.
func (n *node) text() string {
	var sb strings.Builder
	var walk func(*node)
	walk = func(n *node) {
		sb.WriteString(n.lead)
		for _, c := range n.children {
			walk(c)
			sb.WriteString(c.tail)
		}
	}
	walk(n)
	return sb.String()
}

// find returns the first descendant named name, in document order.
func (n *node) find(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if d := c.find(name); d != nil {
			return d
		}
	}
	return nil
}

func (n *node) findAll(name string) []*node {
	var out []*node
	n.walk(func(d *node) {
		if d.name == name {
			out = append(out, d)
		}
	})
	return out
}

// walk visits every descendant of n in document order.
func (n *node) walk(fn func(*node)) {
	for _, c := range n.children {
		fn(c)
		c.walk(fn)
	}
}

// prune drops every descendant named in names, tail text included.
func (n *node) prune(names map[string]bool) int {
	removed := 0
	kept := n.children[:0]
	for _, c := range n.children {
		if names[c.name] {
			removed++
			continue
		}
		removed += c.prune(names)
		kept = append(kept, c)
	}
	n.children = kept
	return removed
}
