package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

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
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Normalize strips non-printable runes and collapses runs of whitespace.
func Normalize(s string) string {
	s = removeNonPrintable(strings.ReplaceAll(s, "\n", " "))
	s = strings.Trim(s, " \t")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// LooksLikeHTML reports whether text contains an <html opening tag.
func LooksLikeHTML(text string) bool {
	return strings.Contains(strings.ToLower(text), "<html")
}

// Title returns the normalized <title> of an HTML page, or "" if text is not
// HTML or has no title.
func Title(text string) string {
	if !LooksLikeHTML(text) {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return ""
	}
	title := doc.Find("title").First()
	if len(title.Nodes) == 0 {
		return ""
	}
	return Normalize(GetText(title.Nodes[0]))
}

// Excerpt returns at most n runes of text.
func Excerpt(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}
