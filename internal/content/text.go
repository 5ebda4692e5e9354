package content

import (
	"regexp"
	"strings"
)

const wordsPerMinute = 200

// PlainText joins the text of every text node, depth first, separated by
// single spaces. Legacy HTML bodies have their tags stripped.
func PlainText(d *Document) string {
	if d.Empty() {
		return ""
	}
	if d.HTML != nil {
		return strings.Join(strings.Fields(tagPattern.ReplaceAllString(*d.HTML, " ")), " ")
	}
	var parts []string
	collectText(d.Root, &parts)
	return strings.Join(parts, " ")
}

func collectText(n *Node, out *[]string) {
	if n == nil {
		return
	}
	if n.Type == TypeText {
		if n.Text != "" {
			*out = append(*out, n.Text)
		}
		return
	}
	for _, c := range n.Content {
		collectText(c, out)
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ReadTime estimates minutes to read text at 200 words per minute, never less than 1.
func ReadTime(text string) int {
	words := len(strings.Fields(tagPattern.ReplaceAllString(text, " ")))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// Slugify lower-cases s, drops punctuation and joins words with single dashes.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
