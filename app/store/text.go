package store

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spaces = regexp.MustCompile(`\s+`)

// PlainText extracts the text from an HTML fragment, block elements are
// separated with a space.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// not an html, use as is
		return sanitize(html)
	}

	parts := doc.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote").Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
	if len(parts) == 0 {
		return sanitize(doc.Text())
	}

	return sanitize(strings.Join(parts, " "))
}

func sanitize(s string) string {
	// nbsp
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
