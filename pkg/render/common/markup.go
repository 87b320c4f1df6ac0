package common

import (
	"html"
	"strings"
)

// Text returns s ready for insertion into markup. Escaping is skipped only
// when raw is set.
func Text(s string, raw bool) string {
	if raw {
		return s
	}
	return html.EscapeString(s)
}

// Style joins property/value pairs into an inline style attribute value.
func Style(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(pairs[i])
		b.WriteByte(':')
		b.WriteString(pairs[i+1])
	}
	return b.String()
}

// Element writes <tag style="..."> inner </tag>. inner is not escaped.
func Element(b *strings.Builder, tag, style, inner string) {
	b.WriteByte('<')
	b.WriteString(tag)
	if style != "" {
		b.WriteString(` style="`)
		b.WriteString(html.EscapeString(style))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	b.WriteString(inner)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

// FillWrapperStyle is the style of a wrapper that fills its container.
var FillWrapperStyle = []string{"width", "100%", "height", "100%"}

// WithStyle appends extra pairs to a copy of base.
func WithStyle(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
