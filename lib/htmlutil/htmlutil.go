package htmlutil

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under the given node.
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
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

// InlineScripts returns the text contents of every <script> element
// in the document, in document order.
func InlineScripts(doc *goquery.Document) []string {
	var scripts []string
	for _, node := range doc.Find("script").Nodes {
		text := GetText(node)
		if text == "" {
			continue
		}
		scripts = append(scripts, text)
	}
	return scripts
}
