package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlToText strips markup from an HTML document and normalizes the
// remaining text: script and style subtrees are dropped, every line is
// trimmed, runs of double spaces split phrases onto their own lines, and
// empty chunks are removed.
func htmlToText(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	collectText(doc, &b)

	var chunks []string
	for _, line := range strings.Split(b.String(), "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if chunk := strings.TrimSpace(phrase); chunk != "" {
				chunks = append(chunks, chunk)
			}
		}
	}
	return strings.Join(chunks, "\n"), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString("\n")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// nodeText concatenates all text descendants of n, trimming the result.
// The equivalent of a get_text(strip=true) over one element.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// nodeAttr returns the value of the named attribute, or "".
func nodeAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// findDivsByClass walks the tree collecting div elements whose class
// attribute is exactly class.
func findDivsByClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && nodeAttr(n, "class") == class {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// firstDivByClass returns the first div under n with the exact class, or nil.
func firstDivByClass(n *html.Node, class string) *html.Node {
	divs := findDivsByClass(n, class)
	if len(divs) == 0 {
		return nil
	}
	return divs[0]
}

// containsElement reports whether n has a descendant element with the tag.
func containsElement(n *html.Node, tag string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return true
		}
		if containsElement(c, tag) {
			return true
		}
	}
	return false
}
