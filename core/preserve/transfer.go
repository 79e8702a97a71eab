package preserve

import (
	"strings"

	"github.com/anchorite/anchorite/core/match"
	"github.com/anchorite/anchorite/core/storage"
)

// Unplaced records an annotation marker whose anchor text could not be
// located anywhere in the matched new subtree. It is reported to the
// caller for manual reconciliation instead of being silently discarded.
type Unplaced struct {
	Ref  string `json:"ref"`
	Text string `json:"text"`
}

// refAttrNames are the attributes carrying a marker's reference
// identifier, in lookup order.
var refAttrNames = []string{"ac:ref", "ref"}

func markerRef(n *storage.Node) string {
	for _, name := range refAttrNames {
		if v := n.Attr(name); v != "" {
			return v
		}
	}
	return ""
}

// transfer moves every annotation marker found directly under a matched
// old node onto the corresponding new node, or records it as unplaced.
// The synthetic roots count as matched, so top-level markers in a rootless
// fragment are transferred too. Old nodes are visited in document order so
// the unplaced list is stable. Markers under unmatched old nodes are never
// visited; they are silently lost rather than reported.
func transfer(oldTree, newTree *storage.Tree, mapping match.Mapping) []Unplaced {
	var unplaced []Unplaced
	for _, oldID := range oldTree.PreOrder() {
		newID, ok := mapping[oldID]
		if oldID == oldTree.Root() {
			newID, ok = newTree.Root(), true
		}
		if !ok {
			continue
		}
		for _, childID := range oldTree.Children(oldID) {
			marker := oldTree.Node(childID)
			if !marker.IsMarker() {
				continue
			}
			anchor := strings.TrimSpace(marker.Text)
			if anchor == "" {
				// Nothing to anchor on; deliberately not reported.
				continue
			}
			cloneID := cloneMarker(newTree, marker)
			if insertMarker(newTree, newID, cloneID, anchor) {
				continue
			}
			unplaced = append(unplaced, Unplaced{Ref: markerRef(marker), Text: anchor})
		}
	}
	return unplaced
}

// cloneMarker allocates a copy of an old-tree marker inside the new tree:
// tag, attributes, and direct text carry over; tail and children start
// empty. The clone is unattached until insertMarker places it.
func cloneMarker(t *storage.Tree, marker *storage.Node) storage.NodeID {
	id := t.NewNode(marker.Tag)
	n := t.Node(id)
	n.Text = marker.Text
	if len(marker.Attrs) > 0 {
		n.Attrs = append([]storage.Attr(nil), marker.Attrs...)
	}
	return id
}

// insertMarker splices the marker clone around the first occurrence of
// anchor inside hostID's subtree, depth-first pre-order. If the host's own
// direct text contains the anchor, the text is split there: the part
// before stays on the host, the part after becomes the clone's tail, and
// the clone becomes the host's first child. Otherwise each non-marker
// child whose text signature contains the anchor is tried in order; the
// first successful insertion wins.
func insertMarker(t *storage.Tree, hostID, markerID storage.NodeID, anchor string) bool {
	host := t.Node(hostID)
	if idx := strings.Index(host.Text, anchor); idx >= 0 {
		after := host.Text[idx+len(anchor):]
		host.Text = host.Text[:idx]
		t.Node(markerID).Tail = after
		t.InsertChild(hostID, 0, markerID)
		return true
	}
	for _, childID := range t.Children(hostID) {
		child := t.Node(childID)
		if child.IsMarker() {
			continue
		}
		if !strings.Contains(t.Signature(childID), anchor) {
			continue
		}
		if insertMarker(t, childID, markerID, anchor) {
			return true
		}
	}
	return false
}
