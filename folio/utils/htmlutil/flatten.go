package htmlutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reTag        = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)
	reBlankLines = regexp.MustCompile(`\n\s*\n+`)
	reSpaces     = regexp.MustCompile(`[ \t]+`)
)

var blockElements = "p, div, li, h1, h2, h3, h4, h5, h6, br, tr, blockquote, pre, section, article"

// LooksLikeHTML reports whether s contains at least one element tag.
func LooksLikeHTML(s string) bool {
	return reTag.MatchString(s)
}

// Flatten turns an article body into plain text for prompting. Plain text
// (including markdown) is returned with whitespace normalized; HTML has
// scripts and styles dropped and block elements separated by newlines.
func Flatten(body string) string {
	if !LooksLikeHTML(body) {
		return normalize(body)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return normalize(body)
	}
	doc.Find("script, style, noscript, template").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return normalize(doc.Text())
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(reSpaces.ReplaceAllString(l, " "))
	}
	s = strings.Join(lines, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
