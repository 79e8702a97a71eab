// Package preserve re-anchors inline comment markers when a storage-format
// page body is regenerated wholesale from its source.
//
// Regeneration is a full replace, not an edit: the converter that produced
// the new body knows nothing about annotations, so every marker in the old
// body would be orphaned on publish. Preserve parses both revisions,
// aligns their trees, transplants each marker onto the matching span of
// the new tree, and reports the markers it could not place.
package preserve

import (
	"github.com/anchorite/anchorite/core/errors"
	"github.com/anchorite/anchorite/core/match"
	"github.com/anchorite/anchorite/core/storage"
	"github.com/anchorite/anchorite/internal/logging"
)

// Result is a successful pipeline run: the patched body plus the markers
// whose anchor text no longer exists in the regenerated document.
type Result struct {
	Body     string     `json:"body"`
	Unplaced []Unplaced `json:"unplaced,omitempty"`
}

// Preserve runs the full pipeline: parse both bodies, match old against
// new, transfer markers, serialize the patched new tree. The call is a
// pure function; no state is shared between invocations. A malformed body
// surfaces as a *errors.ParseError; callers wanting the publish-safe
// degradation use PreserveOrFallback.
func Preserve(oldBody, newBody string) (*Result, error) {
	oldTree, err := storage.Parse(oldBody)
	if err != nil {
		return nil, errors.Wrap(err, "parsing old body")
	}
	newTree, err := storage.Parse(newBody)
	if err != nil {
		return nil, errors.Wrap(err, "parsing new body")
	}

	mapping := match.Trees(oldTree, newTree)
	unplaced := transfer(oldTree, newTree, mapping)

	return &Result{
		Body:     storage.Serialize(newTree),
		Unplaced: unplaced,
	}, nil
}

// PreserveOrFallback degrades to the unmodified new body when the pipeline
// fails for any reason: losing annotations is preferred over blocking a
// publish. The fallback is logged distinctly; callers must not read it as
// a normal zero-unplaced success, the annotations were never examined.
func PreserveOrFallback(oldBody, newBody string) (string, []Unplaced) {
	res, err := Preserve(oldBody, newBody)
	if err != nil {
		logging.Degraded(err)
		return newBody, nil
	}
	return res.Body, res.Unplaced
}
