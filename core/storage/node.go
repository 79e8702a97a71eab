// Package storage parses Confluence storage-format fragments into an
// in-memory ordered tree and serializes the tree back to fragment text.
//
// Nodes live in an arena owned by their Tree and are addressed by NodeID,
// so cross-tree relations (such as the matcher's old-to-new mapping) are
// plain integer pairs with no reliance on pointer identity.
package storage

import "strings"

// NodeID addresses a node within its owning Tree. IDs are assigned
// sequentially at parse time and carry no meaning across trees or calls.
type NodeID int

// Attr is a single element attribute. Order is preserved from the input.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the tree. Text is the direct text immediately
// inside the element before its first child; Tail is the text immediately
// after the element's closing tag, before the next sibling. Keeping the
// two apart is what lets a marker be spliced between a parent's leading
// text and its first child.
type Node struct {
	Tag      string
	Text     string
	Tail     string
	Attrs    []Attr
	children []NodeID
}

// Attr returns the value of the named attribute, or "" if absent.
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute, keeping attribute order.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// markerLocalNames are the element names recognized as annotation markers,
// keyed by their unqualified form.
var markerLocalNames = map[string]bool{
	"inline-comment-marker": true,
}

// verbatimLocalNames are the element names whose text content is emitted
// as a literal CDATA block, keyed by their unqualified form.
var verbatimLocalNames = map[string]bool{
	"plain-text-body":      true,
	"plain-text-link-body": true,
}

// LocalName strips a namespace prefix from a tag name.
func LocalName(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// IsMarker reports whether the node is an annotation marker. Both the
// prefixed form (ac:inline-comment-marker) and the bare form match.
func (n *Node) IsMarker() bool {
	return markerLocalNames[LocalName(n.Tag)]
}

// IsVerbatim reports whether the node's text must survive serialization
// character-for-character, unescaped.
func (n *Node) IsVerbatim() bool {
	return verbatimLocalNames[LocalName(n.Tag)]
}

// Tree is an arena of nodes. Node 0 is the synthetic root created at parse
// time; it never appears in serialized output and is never matched.
type Tree struct {
	nodes []Node
}

// NewTree returns a tree containing only the synthetic root.
func NewTree() *Tree {
	t := &Tree{}
	t.NewNode("")
	return t
}

// Root returns the ID of the synthetic root.
func (t *Tree) Root() NodeID {
	return 0
}

// NewNode allocates a node in the arena and returns its ID. The node is
// not attached anywhere until AppendChild or InsertChild places it.
func (t *Tree) NewNode(tag string) NodeID {
	t.nodes = append(t.nodes, Node{Tag: tag})
	return NodeID(len(t.nodes) - 1)
}

// Node returns the node for id. The pointer is invalidated by the next
// NewNode call; callers must not hold it across allocations.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Len returns the number of nodes in the arena, synthetic root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Children returns the ordered child IDs of id. The slice aliases the
// node's child list and must not be mutated by callers.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].children
}

// AppendChild attaches child as the last child of parent.
func (t *Tree) AppendChild(parent, child NodeID) {
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// InsertChild attaches child at position i under parent, shifting later
// siblings right.
func (t *Tree) InsertChild(parent NodeID, i int, child NodeID) {
	kids := t.nodes[parent].children
	kids = append(kids, 0)
	copy(kids[i+1:], kids[i:])
	kids[i] = child
	t.nodes[parent].children = kids
}

// PreOrder returns every node reachable from the synthetic root in
// document order, root first.
func (t *Tree) PreOrder() []NodeID {
	order := make([]NodeID, 0, len(t.nodes))
	var walk func(NodeID)
	walk = func(id NodeID) {
		order = append(order, id)
		for _, c := range t.nodes[id].children {
			walk(c)
		}
	}
	walk(t.Root())
	return order
}

// Signature returns the node's text signature: its own direct text plus
// all descendant text and tail text in document order, each segment
// whitespace-trimmed, non-empty segments joined by a single space. Word
// boundaries between segments must survive or similarity scores collapse
// at element boundaries. This is the unit compared for similarity and
// scanned for anchor text.
func (t *Tree) Signature(id NodeID) string {
	var segs []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	add(t.nodes[id].Text)
	var walk func(NodeID)
	walk = func(id NodeID) {
		for _, c := range t.nodes[id].children {
			add(t.nodes[c].Text)
			walk(c)
			add(t.nodes[c].Tail)
		}
	}
	walk(id)
	return strings.Join(segs, " ")
}
