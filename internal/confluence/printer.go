package confluence

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/andywolf/uprava/internal/printer"
)

// FormatContent renders a page in the requested format.
func FormatContent(c *Content, f printer.Format) (string, error) {
	if f != printer.FormatEmail {
		return printer.Marshal(c, f)
	}

	text, err := HTMLToText(c.Body.Storage.Value)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", c.Title)
	fmt.Fprintf(&b, "ID: %s\n", c.ID)
	fmt.Fprintf(&b, "Version: %d\n\n", c.Version.Number)
	b.WriteString(text)
	b.WriteString("\n")
	return b.String(), nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "table": true,
	"ul": true, "ol": true, "li": true, "pre": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTMLToText flattens storage-format markup into readable plain text.
func HTMLToText(markup string) (string, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse page body: %w", err)
	}

	var lines []string
	var line strings.Builder
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if line.Len() > 0 {
					line.WriteString(" ")
				}
				line.WriteString(text)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "li":
				flush()
				line.WriteString("*")
			case "td", "th":
				if line.Len() > 0 {
					line.WriteString(" |")
				}
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block && n.Data != "li" {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(root)
	flush()

	return strings.Join(lines, "\n"), nil
}
