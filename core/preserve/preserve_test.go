package preserve

import (
	"testing"
)

// mustPreserve runs the pipeline or fails the test.
func mustPreserve(t *testing.T, oldBody, newBody string) *Result {
	t.Helper()
	res, err := Preserve(oldBody, newBody)
	if err != nil {
		t.Fatalf("Preserve failed: %v", err)
	}
	return res
}

// TestPreserveIdentity verifies a document run against itself comes back
// structurally unchanged with nothing unplaced.
func TestPreserveIdentity(t *testing.T) {
	body := `<h1>Title</h1><p>lead <b>bold</b> tail</p><ac:structured-macro ac:name="toc"/>`
	res := mustPreserve(t, body, body)
	if res.Body != body {
		t.Errorf("body = %q, want unchanged %q", res.Body, body)
	}
	if len(res.Unplaced) != 0 {
		t.Errorf("unplaced = %v, want none", res.Unplaced)
	}
}

// TestPreserveExactRelocation verifies a marker is spliced around the one
// occurrence of its anchor text in the regenerated body.
func TestPreserveExactRelocation(t *testing.T) {
	oldBody := `<p><ac:inline-comment-marker ac:ref="abc">marked</ac:inline-comment-marker> text</p>`
	newBody := `<p>marked text</p>`

	res := mustPreserve(t, oldBody, newBody)
	if res.Body != oldBody {
		t.Errorf("body = %q, want %q", res.Body, oldBody)
	}
	if len(res.Unplaced) != 0 {
		t.Errorf("unplaced = %v, want none", res.Unplaced)
	}
}

// TestPreserveLossReporting verifies a marker whose anchor text was
// rewritten is reported unplaced and absent from the result.
func TestPreserveLossReporting(t *testing.T) {
	oldBody := `<p>Some text with <ac:inline-comment-marker ac:ref="abc">original word</ac:inline-comment-marker> in it</p>`
	newBody := `<p>Some text with different word in it</p>`

	res := mustPreserve(t, oldBody, newBody)
	if res.Body != newBody {
		t.Errorf("body = %q, want unchanged %q", res.Body, newBody)
	}
	want := Unplaced{Ref: "abc", Text: "original word"}
	if len(res.Unplaced) != 1 || res.Unplaced[0] != want {
		t.Errorf("unplaced = %v, want [%v]", res.Unplaced, want)
	}
}

// TestPreserveNonInterference verifies markers under separately matched
// elements transfer independently.
func TestPreserveNonInterference(t *testing.T) {
	oldBody := `<p>first <ac:inline-comment-marker ac:ref="a">alpha</ac:inline-comment-marker> here</p>` +
		`<p>second <ac:inline-comment-marker ac:ref="b">beta</ac:inline-comment-marker> there</p>`
	newBody := `<p>first alpha here</p><p>second beta there</p>`

	res := mustPreserve(t, oldBody, newBody)
	if res.Body != oldBody {
		t.Errorf("body = %q, want %q", res.Body, oldBody)
	}
	if len(res.Unplaced) != 0 {
		t.Errorf("unplaced = %v, want none", res.Unplaced)
	}
}

// TestPreserveDeepInsertion verifies the anchor is found depth-first when
// the regeneration wrapped it in a new inline element.
func TestPreserveDeepInsertion(t *testing.T) {
	oldBody := `<div><p>some <ac:inline-comment-marker ac:ref="r">target</ac:inline-comment-marker> text</p></div>`
	newBody := `<div><p>some <em>target</em> text</p></div>`

	res := mustPreserve(t, oldBody, newBody)
	want := `<div><p>some <em><ac:inline-comment-marker ac:ref="r">target</ac:inline-comment-marker></em> text</p></div>`
	if res.Body != want {
		t.Errorf("body = %q, want %q", res.Body, want)
	}
	if len(res.Unplaced) != 0 {
		t.Errorf("unplaced = %v, want none", res.Unplaced)
	}
}

// TestPreserveFirstOccurrence verifies repeated anchor text resolves to
// the first occurrence in document order.
func TestPreserveFirstOccurrence(t *testing.T) {
	oldBody := `<p><ac:inline-comment-marker ac:ref="r">dup</ac:inline-comment-marker> and dup</p>`
	newBody := `<p>dup and dup</p>`

	res := mustPreserve(t, oldBody, newBody)
	want := `<p><ac:inline-comment-marker ac:ref="r">dup</ac:inline-comment-marker> and dup</p>`
	if res.Body != want {
		t.Errorf("body = %q, want %q", res.Body, want)
	}
}

// TestPreserveVerbatimBody verifies literal macro bodies survive the whole
// pipeline unescaped while a marker is transferred next to them.
func TestPreserveVerbatimBody(t *testing.T) {
	code := `<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[if (a < b && c > d) { run(); }]]></ac:plain-text-body></ac:structured-macro>`
	oldBody := code + `<p><ac:inline-comment-marker ac:ref="r">marked</ac:inline-comment-marker> text</p>`
	newBody := code + `<p>marked text</p>`

	res := mustPreserve(t, oldBody, newBody)
	if res.Body != oldBody {
		t.Errorf("body = %q, want %q", res.Body, oldBody)
	}
	if len(res.Unplaced) != 0 {
		t.Errorf("unplaced = %v, want none", res.Unplaced)
	}
}

// TestPreserveMalformed verifies malformed input surfaces as an error from
// Preserve itself.
func TestPreserveMalformed(t *testing.T) {
	good := "<p>fine</p>"
	bad := "<p>broken"

	if _, err := Preserve(bad, good); err == nil {
		t.Error("Preserve should fail on a malformed old body")
	}
	if _, err := Preserve(good, bad); err == nil {
		t.Error("Preserve should fail on a malformed new body")
	}
}

// TestPreserveOrFallback verifies the degraded path returns the new body
// verbatim with no unplaced markers.
func TestPreserveOrFallback(t *testing.T) {
	good := `<p>marked text</p>`
	bad := `<p>broken`

	body, unplaced := PreserveOrFallback(bad, good)
	if body != good {
		t.Errorf("fallback body = %q, want new body %q", body, good)
	}
	if len(unplaced) != 0 {
		t.Errorf("fallback unplaced = %v, want none", unplaced)
	}

	// The non-degraded path still transfers markers.
	oldBody := `<p><ac:inline-comment-marker ac:ref="x">marked</ac:inline-comment-marker> text</p>`
	body, unplaced = PreserveOrFallback(oldBody, good)
	if body != oldBody {
		t.Errorf("body = %q, want %q", body, oldBody)
	}
	if len(unplaced) != 0 {
		t.Errorf("unplaced = %v, want none", unplaced)
	}
}
