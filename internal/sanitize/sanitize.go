// Package sanitize cleans publisher-authored tender text.
package sanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// TenderHTML strips unsafe tags and attributes from rich text, keeping
// formatting such as lists, links and tables.
func TenderHTML(s string) string {
	return strings.TrimSpace(ugc.Sanitize(validUTF8(s)))
}

// Plain removes all markup from single-line fields such as titles.
func Plain(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(validUTF8(s)))), " ")
}

// HTMLToText converts rich text to plain text with one line per block
// element, so list items become separate requirement clauses. Input without
// markup is returned with whitespace tidied.
func HTMLToText(s string) string {
	if !strings.Contains(s, "<") {
		return cleanLines(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return cleanLines(s)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li, p, div, tr, h1, h2, h3, h4, h5, h6").AppendHtml("\n")
	return cleanLines(doc.Text())
}

// TruncateText cuts a string to maxLen runes, appending an ellipsis if
// truncated.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

func cleanLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// validUTF8 removes invalid byte sequences that Postgres rejects.
func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
