package history

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/pocketgram/core/internal/tg"
)

// SpoilerScheme prefixes the href of a hidden spoiler span. Activating such a
// link reveals the span in place.
const SpoilerScheme = "pocketgram://spoiler/"

// Renderer turns a message body plus its markup entities into the HTML the
// presentation layer displays. The full rich renderer is injected; the
// default covers links and spoilers.
type Renderer interface {
	Render(body string, entities []tg.Entity) string
}

// PlainRenderer is the default body renderer. It escapes the body and wraps
// url and spoiler entities; other markup passes through as plain text.
type PlainRenderer struct{}

func (PlainRenderer) Render(body string, entities []tg.Entity) string {
	runes := []rune(body)

	var b strings.Builder
	b.WriteString("<html>")

	pos := int32(0)
	for i, ent := range entities {
		if ent.Offset < pos || int(ent.Offset+ent.Length) > len(runes) {
			continue
		}
		b.WriteString(html.EscapeString(string(runes[pos:ent.Offset])))
		span := html.EscapeString(string(runes[ent.Offset : ent.Offset+ent.Length]))

		switch ent.Kind {
		case tg.EntityURL:
			href := ent.URL
			if href == "" {
				href = string(runes[ent.Offset : ent.Offset+ent.Length])
			}
			fmt.Fprintf(&b, `<a href=%q>%s</a>`, href, span)
		case tg.EntitySpoiler:
			fmt.Fprintf(&b, `<a href="%s%d" color="transparent">%s</a>`, SpoilerScheme, i, span)
		default:
			b.WriteString(span)
		}
		pos = ent.Offset + ent.Length
	}
	if int(pos) < len(runes) {
		b.WriteString(html.EscapeString(string(runes[pos:])))
	}

	b.WriteString("</html>")
	return b.String()
}

// revealSpoiler strips the spoiler attributes from the anchor enclosing the
// activated link, returning the transformed markup and whether anything
// changed.
func revealSpoiler(markup, link string) (string, bool) {
	doc, err := xhtml.Parse(strings.NewReader(markup))
	if err != nil {
		return markup, false
	}

	target := findAnchor(doc, link)
	if target == nil {
		return markup, false
	}

	// Walk up: the activated link may be nested inside the spoiler anchor.
	for n := target; n != nil; n = n.Parent {
		if n.Type != xhtml.ElementNode {
			continue
		}
		if !strings.HasPrefix(attr(n, "href"), SpoilerScheme) {
			continue
		}

		removeAttr(n, "href")
		stripColors(n)

		var out bytes.Buffer
		if err := xhtml.Render(&out, doc); err != nil {
			return markup, false
		}
		return out.String(), true
	}

	return markup, false
}

func findAnchor(n *xhtml.Node, href string) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.Data == "a" && attr(n, "href") == href {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findAnchor(c, href); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func removeAttr(n *xhtml.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// stripColors removes color attributes from the node and its whole subtree.
func stripColors(n *xhtml.Node) {
	if n.Type == xhtml.ElementNode {
		removeAttr(n, "color")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		stripColors(c)
	}
}
