package match

import (
	"github.com/anchorite/anchorite/core/storage"
	"github.com/anchorite/anchorite/internal/logging"
)

// Threshold is the minimum similarity at which two nodes are considered
// the same element across revisions.
const Threshold = 0.8

// noMatch is the sentinel score for pairs that can never match: annotation
// markers and tag mismatches.
const noMatch = -1.0

// Mapping is a partial injective mapping from old-tree node IDs to
// new-tree node IDs. At most one old node claims any new node.
type Mapping map[storage.NodeID]storage.NodeID

// Trees aligns old against new, top-down and greedy, starting from the
// children of the two synthetic roots. The roots themselves never appear
// in the mapping. The result is deterministic but not globally optimal:
// when two candidates score equally the earlier new sibling wins.
func Trees(oldTree, newTree *storage.Tree) Mapping {
	m := &matcher{
		old:     oldTree,
		new:     newTree,
		oldSigs: make(map[storage.NodeID]string),
		newSigs: make(map[storage.NodeID]string),
		claimed: make(map[storage.NodeID]bool),
		mapping: make(Mapping),
	}
	m.matchChildren(oldTree.Root(), newTree.Root())
	return m.mapping
}

type matcher struct {
	old, new *storage.Tree
	// Signatures are memoized per tree; the matcher rescans siblings
	// quadratically and must not recompute subtree text each time.
	oldSigs map[storage.NodeID]string
	newSigs map[storage.NodeID]string
	claimed map[storage.NodeID]bool
	mapping Mapping
}

// matchChildren pairs the children of an accepted (old, new) pair. Every
// non-marker old child scans the not-yet-claimed new children in document
// order and keeps the best candidate at or above Threshold. Old children
// with no qualifying candidate stay out of the mapping; their markers are
// later reported unplaced.
func (m *matcher) matchChildren(oldID, newID storage.NodeID) {
	for _, oc := range m.old.Children(oldID) {
		if m.old.Node(oc).IsMarker() {
			continue
		}
		best := storage.NodeID(-1)
		bestScore := noMatch
		for _, nc := range m.new.Children(newID) {
			if m.claimed[nc] {
				continue
			}
			if s := m.score(oc, nc); s > bestScore {
				best, bestScore = nc, s
			}
		}
		if bestScore < Threshold {
			continue
		}
		m.claimed[best] = true
		m.mapping[oc] = best
		if bestScore < 1.0 {
			logging.PartialMatch(m.old.Node(oc).Tag, bestScore)
		}
		m.matchChildren(oc, best)
	}
}

// score rates an old/new candidate pair. Markers never match anything,
// neither do differing tags. Otherwise the score is the text-signature
// similarity, with empty-versus-nonempty pinned to zero.
func (m *matcher) score(oldID, newID storage.NodeID) float64 {
	on := m.old.Node(oldID)
	nn := m.new.Node(newID)
	if on.IsMarker() || on.Tag != nn.Tag {
		return noMatch
	}
	a := m.signature(m.old, m.oldSigs, oldID)
	b := m.signature(m.new, m.newSigs, newID)
	if (a == "") != (b == "") {
		return 0
	}
	return Ratio(a, b)
}

func (m *matcher) signature(t *storage.Tree, cache map[storage.NodeID]string, id storage.NodeID) string {
	if s, ok := cache[id]; ok {
		return s
	}
	s := t.Signature(id)
	cache[id] = s
	return s
}
