package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Clean strips non-printable characters, trims the string and collapses
// runs of whitespace into a single space.
func Clean(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text is the cleaned text content of every node in the selection.
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return Clean(buffer.String())
}

// LastText returns the trimmed data of the last non-blank text node that is a
// direct child of `node`.
func LastText(node *html.Node) string {
	if node == nil {
		return ""
	}
	for child := node.LastChild; child != nil; child = child.PrevSibling {
		if child.Type != html.TextNode {
			continue
		}
		text := strings.TrimSpace(child.Data)
		if text != "" {
			return text
		}
	}
	return ""
}

// NextTextSibling returns the trimmed data of the first non-blank text node
// following `node` among its siblings.
func NextTextSibling(node *html.Node) string {
	if node == nil {
		return ""
	}
	for sib := node.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.TextNode {
			continue
		}
		text := strings.TrimSpace(sib.Data)
		if text != "" {
			return text
		}
	}
	return ""
}

// FindNext returns the first element after `node` in document order that
// satisfies `match`, it does not descend into `node` itself.
func FindNext(node *html.Node, match func(n *html.Node) bool) *html.Node {
	for current := node; current != nil; current = current.Parent {
		for sib := current.NextSibling; sib != nil; sib = sib.NextSibling {
			found := findFirst(sib, match)
			if found != nil {
				return found
			}
		}
	}
	return nil
}

func findFirst(node *html.Node, match func(n *html.Node) bool) *html.Node {
	if node.Type == html.ElementNode && match(node) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		found := findFirst(child, match)
		if found != nil {
			return found
		}
	}
	return nil
}

// IsElement returns a matcher for FindNext that accepts elements of a tag.
func IsElement(tag string) func(n *html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

// Attr returns the value of an attribute on a raw node.
func Attr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
