// Package htmltext converts provider markup into plain text for storage.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockElements = "p, div, li, ul, ol, h1, h2, h3, h4, h5, h6, blockquote, section, article, tr"

// Strip returns the text content of an HTML fragment. Paragraphs, list items
// and line breaks end up on their own lines; whitespace inside a line is
// collapsed to a single space and blank lines are dropped. Plain text passes
// through with the same normalisation.
func Strip(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	doc.Find("script, style").Remove()

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).BeforeHtml("\n").AfterHtml("\n")

	return collapse(doc.Text())
}

// collapse normalises whitespace line by line.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
