package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Instructions returns the paragraphs following the first heading whose text
// matches name case-insensitively, up to the next heading.
func Instructions(doc *goquery.Document, name string) []string {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil
	}
	nodes := doc.Find("*").Nodes

	start := -1
	for i, n := range nodes {
		if isHeading(n) && strings.ToLower(nodeText(n)) == target {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []string
	for _, n := range nodes[start+1:] {
		if isHeading(n) {
			break
		}
		if n.Data != "p" || isAncestor(nodes[start], n) {
			continue
		}
		if t := nodeText(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// HaulIntro returns the week's introductory text: the nearest heading
// mentioning "week" before the page's first table, else the text of the
// nearest paragraph before it. It returns "" when neither exists or that
// paragraph is empty.
func HaulIntro(doc *goquery.Document) string {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return ""
	}
	tableNode := table.Nodes[0]
	nodes := doc.Find("*").Nodes

	at := -1
	for i, n := range nodes {
		if n == tableNode {
			at = i
			break
		}
	}
	preceding := make([]*html.Node, 0, at)
	for _, n := range nodes[:at] {
		// Ancestors contain the table itself.
		if !isAncestor(n, tableNode) {
			preceding = append(preceding, n)
		}
	}

	for i := len(preceding) - 1; i >= 0; i-- {
		n := preceding[i]
		if !isHeading(n) {
			continue
		}
		if t := nodeText(n); strings.Contains(strings.ToLower(t), "week") {
			return t
		}
	}
	for i := len(preceding) - 1; i >= 0; i-- {
		if n := preceding[i]; n.Data == "p" {
			return nodeText(n)
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}
