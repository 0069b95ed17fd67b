package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strippedTags never carry business facts and only inflate prompts
const strippedTags = "script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas, img, picture, video"

// CleanHTML removes non-content elements and every attribute except an anchor's href and title
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find(strippedTags).Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		if node.Data != "a" {
			node.Attr = nil
			return
		}
		var kept []html.Attribute
		for _, attr := range node.Attr {
			if attr.Key == "href" || attr.Key == "title" {
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})

	htmlStr, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(htmlStr), nil
}
