// Package markup converts the HTML bodies carried by StackExchange dumps to
// plain text.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Strip parses s as HTML and returns the concatenated text content. If the
// input cannot be parsed it is returned unchanged, so a broken body never
// loses data.
func Strip(s string) string {
	if s == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}
