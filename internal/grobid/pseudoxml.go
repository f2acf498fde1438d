package grobid

import (
	"fmt"
	"io"
	"strings"
)

// noisyTags are dropped with their content before rendering.
var noisyTags = map[string]bool{
	"biblStruct": true,
	"note":       true,
	"ref":        true,
}

var pseudoTags = map[string]string{
	"p":    "paragraph",
	"item": "recommendationItem",
	"row":  "tableRow",
}

// PseudoXML flattens a TEI document into a compact tagged text form:
// the title, then body headings, paragraphs, list items and table rows in
// document order. Only an element's leading text is used, so content that
// sits entirely inside child elements (sentences, cells) is skipped.
func PseudoXML(r io.Reader) (string, error) {
	root, err := parseTree(r)
	if err != nil {
		return "", err
	}
	root.prune(noisyTags)

	var sb strings.Builder
	if stmt := root.find("titleStmt"); stmt != nil {
		if t := stmt.find("title"); t != nil {
			if title := strings.TrimSpace(t.lead); title != "" {
				fmt.Fprintf(&sb, "<docTitle>%s</docTitle>\n", title)
			}
		}
	}

	body := root.find("body")
	if body == nil {
		return sb.String(), nil
	}
	body.walk(func(n *node) {
		text := strings.TrimSpace(n.lead)
		if text == "" {
			return
		}
		if n.name == "head" {
			fmt.Fprintf(&sb, "\n<sectionHeader>%s</sectionHeader>\n", text)
			return
		}
		if tag, ok := pseudoTags[n.name]; ok {
			fmt.Fprintf(&sb, "<%s>%s</%s>\n", tag, text, tag)
		}
	})
	return sb.String(), nil
}
