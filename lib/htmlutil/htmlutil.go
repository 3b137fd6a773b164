package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node in document order,
// without the per-element spacing heuristics selection helpers apply.
func GetText(node *html.Node) string {
	var b strings.Builder
	appendText(node, &b)
	return b.String()
}

func appendText(node *html.Node, b *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		b.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		appendText(child, b)
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CellText is the text content of a table cell with the usual markup
// noise removed: non-printable runes, nbsp padding, inner runs of
// whitespace.
func CellText(sel *goquery.Selection) string {
	var raw strings.Builder
	for _, node := range sel.Nodes {
		raw.WriteString(GetText(node))
	}
	text := removeNonPrintable(raw.String())
	text = strings.ReplaceAll(text, " ", " ")
	text = innerWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
