// Package render turns stored markdown fields into display markup for the
// reader API and into plain text for paginated PDF layout.
package render

import (
	"bytes"
	"strings"

	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

// Renderer có hai output mode: HTML cho view tương tác, plain text cho PDF.
type Renderer interface {
	Render(markdown string) string
	FlattenToPlainText(markdown string) string
}

// Markdown renders with blackfriday. Single newlines become hard breaks,
// matching how authors type stories in the editor.
type Markdown struct {
	extensions blackfriday.Extensions
}

func NewMarkdown() *Markdown {
	return &Markdown{
		extensions: blackfriday.CommonExtensions | blackfriday.HardLineBreak,
	}
}

func (m *Markdown) toHTML(markdown string) []byte {
	return blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(m.extensions))
}

func (m *Markdown) Render(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	return string(m.toHTML(markdown))
}

// FlattenToPlainText bỏ toàn bộ markup. Block element thành paragraph
// (ngăn cách bằng "\n\n"), <br> thành "\n".
func (m *Markdown) FlattenToPlainText(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	doc, err := html.Parse(bytes.NewReader(m.toHTML(markdown)))
	if err != nil {
		// html.Parse gần như không fail với input từ blackfriday
		return strings.TrimSpace(markdown)
	}

	f := &flattener{}
	f.walk(doc)
	f.flush()
	return strings.Join(f.paragraphs, "\n\n")
}

var blockElements = map[string]bool{
	"p": true, "div": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "hr": true,
	"table": true, "tr": true,
}

type flattener struct {
	paragraphs []string
	current    strings.Builder
	preDepth   int
}

func (f *flattener) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		f.text(n.Data)
		return
	case html.ElementNode:
		if n.Data == "br" {
			f.current.WriteString("\n")
			return
		}
		if blockElements[n.Data] {
			f.flush()
		}
		if n.Data == "pre" {
			f.preDepth++
			defer func() { f.preDepth-- }()
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		f.flush()
	}
}

func (f *flattener) text(data string) {
	if f.preDepth > 0 {
		f.current.WriteString(data)
		return
	}
	f.current.WriteString(strings.ReplaceAll(data, "\n", " "))
}

// flush đóng paragraph hiện tại: trim từng dòng, gộp khoảng trắng liên tiếp
func (f *flattener) flush() {
	raw := f.current.String()
	f.current.Reset()

	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > 0 {
		f.paragraphs = append(f.paragraphs, strings.Join(kept, "\n"))
	}
}
