package chunker

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const htmlBlocks = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td, th, dt, dd"

// htmlToMarkdown flattens an HTML page into markdown-ish text: headings keep
// their level, list items become bullets, everything else a paragraph.
func htmlToMarkdown(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	var blocks []string
	doc.Find(htmlBlocks).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (a <p> inside an <li>) are emitted by their outermost block.
		if s.ParentsFiltered(htmlBlocks).Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if goquery.NodeName(s) == "pre" {
			text = strings.TrimSpace(s.Text())
		}
		if text == "" {
			return
		}

		switch name := goquery.NodeName(s); name {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(name[1] - '0')
			blocks = append(blocks, strings.Repeat("#", level)+" "+text)
		case "li", "dd":
			blocks = append(blocks, "- "+text)
		case "pre":
			blocks = append(blocks, "```\n"+text+"\n```")
		default:
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}
