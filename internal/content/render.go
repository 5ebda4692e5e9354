package content

import (
	"html"
	"strconv"
	"strings"
)

const (
	defaultContainerClass = "article-content"
	defaultEmptyHTML      = `<p class="text-muted-foreground">No content available.</p>`
	defaultHeadingLevel   = 2
	maxHeadingLevel       = 6
	invalidHeadingLevel   = maxHeadingLevel + 1
)

// Renderer turns documents into HTML. It holds no state between calls and
// the same input always yields the same markup.
type Renderer struct {
	// ContainerClass is the class of the wrapping <div>.
	ContainerClass string
	// EmptyHTML is emitted for a missing or empty document.
	EmptyHTML string
}

func NewRenderer() *Renderer {
	return &Renderer{ContainerClass: defaultContainerClass, EmptyHTML: defaultEmptyHTML}
}

// HTML renders a whole document wrapped in the article container.
//
// Legacy documents ({"html": "..."}) are written out verbatim without
// sanitization; callers serving untrusted authors must sanitize upstream.
func (r *Renderer) HTML(d *Document) string {
	if d.Empty() {
		return r.EmptyHTML
	}
	var b strings.Builder
	b.WriteString(`<div class="`)
	b.WriteString(html.EscapeString(r.ContainerClass))
	b.WriteString(`">`)
	if d.HTML != nil {
		b.WriteString(*d.HTML)
	} else {
		// the root is a container whatever its type; only its children render
		r.children(&b, d.Root)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Fragment renders a single node without the article container.
func (r *Renderer) Fragment(n *Node) string {
	var b strings.Builder
	r.node(&b, n)
	return b.String()
}

func (r *Renderer) children(b *strings.Builder, n *Node) {
	for _, c := range n.Content {
		r.node(b, c)
	}
}

func (r *Renderer) wrap(b *strings.Builder, tag string, n *Node) {
	b.WriteString("<" + tag + ">")
	r.children(b, n)
	b.WriteString("</" + tag + ">")
}

func (r *Renderer) node(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case TypeParagraph:
		r.wrap(b, "p", n)
	case TypeHeading:
		r.wrap(b, "h"+strconv.Itoa(HeadingLevel(n)), n)
	case TypeText:
		b.WriteString(markText(n))
	case TypeBlockquote:
		r.wrap(b, "blockquote", n)
	case TypeBulletList:
		r.wrap(b, "ul", n)
	case TypeOrderedList:
		r.wrap(b, "ol", n)
	case TypeListItem:
		r.wrap(b, "li", n)
	case TypeImage:
		b.WriteString(imageTag(n))
	case TypeHorizontalRule:
		b.WriteString("<hr>")
	case TypeCodeBlock:
		b.WriteString("<pre><code>")
		r.children(b, n)
		b.WriteString("</code></pre>")
	default:
		// unknown kinds keep their children inside a generic container
		if len(n.Content) > 0 {
			r.wrap(b, "div", n)
		}
	}
}

// HeadingLevel returns the level a heading renders at: 2 when absent,
// 6 for anything outside 1..6.
func HeadingLevel(n *Node) int {
	if n.Attrs == nil || n.Attrs.Level == nil {
		return defaultHeadingLevel
	}
	l := *n.Attrs.Level
	if l < 1 || l > maxHeadingLevel {
		return maxHeadingLevel
	}
	return l
}

// markText escapes the text and applies marks in array order, each wrapping
// the previous result: the first mark ends up innermost.
func markText(n *Node) string {
	s := html.EscapeString(n.Text)
	for _, m := range n.Marks {
		switch m.Type {
		case MarkBold:
			s = "<strong>" + s + "</strong>"
		case MarkItalic:
			s = "<em>" + s + "</em>"
		case MarkUnderline:
			s = "<u>" + s + "</u>"
		case MarkLink:
			s = linkOpen(m) + s + "</a>"
		}
	}
	return s
}

func linkOpen(m Mark) string {
	var b strings.Builder
	b.WriteString("<a")
	if m.Attrs != nil && m.Attrs.Href != "" {
		b.WriteString(` href="`)
		b.WriteString(html.EscapeString(m.Attrs.Href))
		b.WriteString(`"`)
	}
	b.WriteString(` target="_blank" rel="noopener noreferrer">`)
	return b.String()
}

func imageTag(n *Node) string {
	var src, alt string
	if n.Attrs != nil {
		src, alt = n.Attrs.Src, n.Attrs.Alt
	}
	if src == "" {
		return `<img alt="` + html.EscapeString(alt) + `">`
	}
	return `<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(alt) + `">`
}
