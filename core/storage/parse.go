package storage

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/anchorite/anchorite/core/encoding"
	"github.com/anchorite/anchorite/core/errors"
)

// Namespace URIs declared on the synthetic wrapper so prefixed macro,
// marker, and attachment tags parse without per-document declarations.
const (
	acNamespace = "http://www.atlassian.com/schema/confluence/4/ac/"
	riNamespace = "http://www.atlassian.com/schema/confluence/4/ri/"

	wrapperTag = "storage-fragment"
)

// WrapFragment wraps a storage-format fragment in a synthetic root element
// carrying the ac and ri namespace declarations. Storage-format bodies are
// fragments: they have no single root and no namespace declarations of
// their own.
func WrapFragment(fragment string) string {
	return fmt.Sprintf("<%s xmlns:ac=%q xmlns:ri=%q>%s</%s>",
		wrapperTag, acNamespace, riNamespace, fragment, wrapperTag)
}

// Parse turns a storage-format fragment into a Tree. Named entities
// outside the XML base set are expanded first (see encoding.ExpandEntities),
// then the fragment is wrapped and parsed strictly. Malformed input yields
// a *errors.ParseError; there is no partial recovery.
func Parse(fragment string) (*Tree, error) {
	prepared := WrapFragment(encoding.ExpandEntities(fragment))
	doc, err := xmlquery.ParseWithOptions(strings.NewReader(prepared), xmlquery.ParserOptions{
		// Strict parsing: malformed input must fail here so the caller can
		// degrade, never half-build a tree from invented end tags.
		Decoder: &xmlquery.DecoderOptions{Strict: true},
	})
	if err != nil {
		return nil, errors.NewParse("storage", "", err.Error())
	}

	var wrapper *xmlquery.Node
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			wrapper = c
			break
		}
	}
	if wrapper == nil {
		return nil, errors.NewParse("storage", "", "no root element")
	}

	t := NewTree()
	convertChildren(t, t.Root(), wrapper)
	return t, nil
}

// convertChildren walks an xmlquery element and builds the arena form of
// its children under parentID, splitting character data into direct text
// (before the first element child) and sibling tails.
func convertChildren(t *Tree, parentID NodeID, xn *xmlquery.Node) {
	last := NodeID(-1)
	for c := xn.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if last < 0 {
				t.Node(parentID).Text += c.Data
			} else {
				t.Node(last).Tail += c.Data
			}
		case xmlquery.ElementNode:
			id := t.NewNode(qualifiedName(c))
			t.Node(id).Attrs = convertAttrs(c.Attr)
			t.AppendChild(parentID, id)
			convertChildren(t, id, c)
			last = id
		}
		// Comments and processing instructions are dropped.
	}
}

func qualifiedName(xn *xmlquery.Node) string {
	if xn.Prefix != "" {
		return xn.Prefix + ":" + xn.Data
	}
	return xn.Data
}

// convertAttrs rebuilds qualified attribute names. xmlquery resolves
// namespace URIs back to their prefixes, so Name.Space holds a prefix
// ("ac", or "xmlns" for declarations), never a URI.
func convertAttrs(attrs []xmlquery.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + a.Name.Local
		}
		out = append(out, Attr{Name: name, Value: a.Value})
	}
	return out
}
