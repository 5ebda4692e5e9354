// Package content holds the article document model produced by the block
// editor and the renderer that turns it back into HTML.
package content

import (
	"encoding/json"
	"fmt"
	"math"
)

// NodeType is the discriminant of a document node.
type NodeType string

const (
	TypeDoc            NodeType = "doc"
	TypeParagraph      NodeType = "paragraph"
	TypeHeading        NodeType = "heading"
	TypeText           NodeType = "text"
	TypeBlockquote     NodeType = "blockquote"
	TypeBulletList     NodeType = "bulletList"
	TypeOrderedList    NodeType = "orderedList"
	TypeListItem       NodeType = "listItem"
	TypeImage          NodeType = "image"
	TypeHorizontalRule NodeType = "horizontalRule"
	TypeCodeBlock      NodeType = "codeBlock"
)

// MarkType is the discriminant of an inline mark on a text node.
type MarkType string

const (
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkLink      MarkType = "link"
)

// Attrs are the node attributes the renderer understands. Level is nil
// when the stored node carries no level.
type Attrs struct {
	Level *int   `json:"level,omitempty"`
	Src   string `json:"src,omitempty"`
	Alt   string `json:"alt,omitempty"`
	Href  string `json:"href,omitempty"`
}

type Mark struct {
	Type  MarkType `json:"type"`
	Attrs *Attrs   `json:"attrs,omitempty"`
}

// Node is one element of the document tree. Text nodes are leaves; every
// other node owns its Content slice exclusively.
type Node struct {
	Type    NodeType `json:"type"`
	Attrs   *Attrs   `json:"attrs,omitempty"`
	Marks   []Mark   `json:"marks,omitempty"`
	Text    string   `json:"text,omitempty"`
	Content []*Node  `json:"content,omitempty"`
}

// Document is a parsed article body: either a node tree rooted at a doc
// node, or a legacy raw-HTML body. Both nil means no content.
type Document struct {
	Root *Node
	HTML *string
}

// Empty reports whether the document has nothing to render.
func (d *Document) Empty() bool {
	return d == nil || (d.Root == nil && d.HTML == nil)
}

// Parse decodes a stored content field. Only syntactically invalid JSON is
// an error; nodes with unexpected shapes are dropped individually so the
// rest of the document still renders.
func Parse(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return &Document{}, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return FromValue(v), nil
}

// FromValue builds a Document from an already decoded JSON value.
func FromValue(v interface{}) *Document {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return &Document{}
	}
	if h, ok := obj["html"].(string); ok {
		return &Document{HTML: &h}
	}
	return &Document{Root: nodeFromValue(obj)}
}

func nodeFromValue(v interface{}) *Node {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	typ, ok := obj["type"].(string)
	if !ok || typ == "" {
		return nil
	}
	n := &Node{Type: NodeType(typ)}
	if a, ok := obj["attrs"].(map[string]interface{}); ok {
		n.Attrs = attrsFromValue(a)
	}
	if n.Type == TypeText {
		n.Text, _ = obj["text"].(string)
		if ms, ok := obj["marks"].([]interface{}); ok {
			for _, m := range ms {
				if mk, ok := markFromValue(m); ok {
					n.Marks = append(n.Marks, mk)
				}
			}
		}
		return n
	}
	n.Content = []*Node{}
	if cs, ok := obj["content"].([]interface{}); ok {
		for _, c := range cs {
			if child := nodeFromValue(c); child != nil {
				n.Content = append(n.Content, child)
			}
		}
	}
	return n
}

func markFromValue(v interface{}) (Mark, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return Mark{}, false
	}
	typ, ok := obj["type"].(string)
	if !ok || typ == "" {
		return Mark{}, false
	}
	m := Mark{Type: MarkType(typ)}
	if a, ok := obj["attrs"].(map[string]interface{}); ok {
		m.Attrs = attrsFromValue(a)
	}
	return m, true
}

func attrsFromValue(a map[string]interface{}) *Attrs {
	out := &Attrs{}
	switch lv := a["level"].(type) {
	case nil:
	case float64:
		l := invalidHeadingLevel
		if lv == math.Trunc(lv) && lv >= math.MinInt32 && lv <= math.MaxInt32 {
			l = int(lv)
		}
		out.Level = &l
	default:
		// strings and other shapes are present but never a valid level
		l := invalidHeadingLevel
		out.Level = &l
	}
	out.Src, _ = a["src"].(string)
	out.Alt, _ = a["alt"].(string)
	out.Href, _ = a["href"].(string)
	return out
}

// Doc builds a document root. The helpers below mirror what the editor emits
// and are used by tests and the CLI.
func Doc(blocks ...*Node) *Node { return container(TypeDoc, blocks) }

func Paragraph(children ...*Node) *Node  { return container(TypeParagraph, children) }
func Blockquote(children ...*Node) *Node { return container(TypeBlockquote, children) }
func BulletList(items ...*Node) *Node    { return container(TypeBulletList, items) }
func OrderedList(items ...*Node) *Node   { return container(TypeOrderedList, items) }
func ListItem(children ...*Node) *Node   { return container(TypeListItem, children) }
func CodeBlock(children ...*Node) *Node  { return container(TypeCodeBlock, children) }
func HorizontalRule() *Node              { return container(TypeHorizontalRule, nil) }

func Heading(level int, children ...*Node) *Node {
	n := container(TypeHeading, children)
	n.Attrs = &Attrs{Level: &level}
	return n
}

func Image(src, alt string) *Node {
	n := container(TypeImage, nil)
	n.Attrs = &Attrs{Src: src, Alt: alt}
	return n
}

func Text(s string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: s, Marks: marks}
}

func Bold() Mark      { return Mark{Type: MarkBold} }
func Italic() Mark    { return Mark{Type: MarkItalic} }
func Underline() Mark { return Mark{Type: MarkUnderline} }
func Link(href string) Mark {
	return Mark{Type: MarkLink, Attrs: &Attrs{Href: href}}
}

func container(t NodeType, children []*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Type: t, Content: children}
}

// MarshalJSON keeps the stored shape: text nodes never carry content and
// container nodes always do, even when empty.
func (n *Node) MarshalJSON() ([]byte, error) {
	type leaf struct {
		Type  NodeType `json:"type"`
		Attrs *Attrs   `json:"attrs,omitempty"`
		Marks []Mark   `json:"marks,omitempty"`
		Text  string   `json:"text"`
	}
	type branch struct {
		Type    NodeType `json:"type"`
		Attrs   *Attrs   `json:"attrs,omitempty"`
		Content []*Node  `json:"content"`
	}
	if n.Type == TypeText {
		return json.Marshal(leaf{Type: n.Type, Attrs: n.Attrs, Marks: n.Marks, Text: n.Text})
	}
	content := n.Content
	if content == nil {
		content = []*Node{}
	}
	return json.Marshal(branch{Type: n.Type, Attrs: n.Attrs, Content: content})
}
