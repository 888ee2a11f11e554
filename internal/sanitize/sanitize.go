// Package sanitize strips unsafe markup from untrusted text before it is
// trusted by the rest of the application. Every string field coming off the
// wire passes through Clean exactly once, immediately after decoding.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Elements whose entire subtree is discarded, content included.
var dropSubtree = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"noscript": true,
	"object":   true,
	"embed":    true,
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Clean removes markup from raw and returns the remaining text with the
// characters &, < and > re-escaped. Plain text without those characters
// passes through unchanged. Clean is a total function and idempotent:
// Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	if !strings.ContainsAny(raw, "<>&") {
		return raw
	}

	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(raw), root)
	if err != nil {
		return escaper.Replace(raw)
	}

	var b strings.Builder
	for _, node := range nodes {
		collectText(&b, node)
	}
	return escaper.Replace(b.String())
}

func collectText(b *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		b.WriteString(node.Data)
		return
	case html.ElementNode:
		if dropSubtree[node.Data] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(b, child)
	}
}
