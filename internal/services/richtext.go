package services

import (
	"encoding/json"
	"strings"
)

// PlainText flattens a rich-text editor document (a tree of nodes carrying
// "text" leaves under "content" or "children") into lines of plain text.
// A bare JSON string is returned as is.
func PlainText(doc json.RawMessage) string {
	if len(doc) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return ""
	}

	var b strings.Builder
	collectText(v, &b)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func collectText(v interface{}, b *strings.Builder) {
	switch n := v.(type) {
	case string:
		b.WriteString(n)
	case []interface{}:
		for _, child := range n {
			collectText(child, b)
		}
	case map[string]interface{}:
		if t, ok := n["text"].(string); ok {
			b.WriteString(t)
		}
		if content, ok := n["content"]; ok {
			collectText(content, b)
			b.WriteString("\n")
		}
		if children, ok := n["children"]; ok {
			collectText(children, b)
		}
		if t, _ := n["type"].(string); t == "hardBreak" {
			b.WriteString("\n")
		}
	}
}
