package storage

import (
	"strings"

	"github.com/anchorite/anchorite/core/encoding"
)

// Serialize renders the tree back to storage-format fragment text. The
// synthetic root contributes only its leading text; its tags are never
// emitted. Output reproduces the parsed input byte-for-byte except for
// entity expansion and text/attribute escaping normalization.
func Serialize(t *Tree) string {
	var b strings.Builder
	b.WriteString(encoding.EscapeXMLText(t.Node(t.Root()).Text))
	for _, c := range t.Children(t.Root()) {
		writeNode(t, c, &b)
	}
	return b.String()
}

func writeNode(t *Tree, id NodeID, b *strings.Builder) {
	n := t.Node(id)
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(encoding.EscapeXMLAttr(a.Value))
		b.WriteByte('"')
	}

	children := t.Children(id)
	if n.Text == "" && len(children) == 0 && !n.IsVerbatim() {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
		if n.IsVerbatim() {
			// Verbatim bodies hold code or macro source; their content
			// must come back out unescaped, as a literal block.
			b.WriteString("<![CDATA[")
			b.WriteString(n.Text)
			b.WriteString("]]>")
		} else {
			b.WriteString(encoding.EscapeXMLText(n.Text))
		}
		for _, c := range children {
			writeNode(t, c, b)
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
	b.WriteString(encoding.EscapeXMLText(n.Tail))
}
