// Command anchorite re-anchors Confluence inline comment markers when a
// page body is regenerated from its markdown source.
//
// Usage:
//
//	anchorite preserve <old.xml> <new.xml> [--out patched.xml] [--json]
//	anchorite markers <body.xml>
//	anchorite query <body.xml> <xpath>
//	anchorite check <body.xml>
//	anchorite version
//
// The engine itself performs no network I/O; fetching bodies and
// publishing results belong to the surrounding tooling.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/anchorite/anchorite/core/encoding"
	"github.com/anchorite/anchorite/core/preserve"
	"github.com/anchorite/anchorite/core/storage"
	"github.com/anchorite/anchorite/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for anchorite.
var CLI struct {
	// Global flags
	LogLevel string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log verbosity"`
	LogJSON  bool   `name:"log-json" help:"Emit logs as JSON instead of text"`

	Preserve PreserveCmd `cmd:"" help:"Re-anchor inline comment markers from an old body onto a regenerated one"`
	Markers  MarkersCmd  `cmd:"" help:"List inline comment markers in a storage-format body"`
	Query    QueryCmd    `cmd:"" help:"Run an XPath query against a storage-format body"`
	Check    CheckCmd    `cmd:"" help:"Verify parse/serialize round-trip fidelity of a body"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// PreserveCmd runs the preservation pipeline over two body files.
type PreserveCmd struct {
	Old  string `arg:"" help:"Current page body, carrying the markers" type:"existingfile"`
	New  string `arg:"" help:"Regenerated page body, without markers" type:"existingfile"`
	Out  string `name:"out" short:"o" help:"Write the patched body here instead of stdout" type:"path"`
	JSON bool   `name:"json" help:"Emit patched body and unplaced markers as JSON"`
}

func (c *PreserveCmd) Run(runCtx context.Context) error {
	oldBody, err := os.ReadFile(c.Old)
	if err != nil {
		return fmt.Errorf("reading old body: %w", err)
	}
	newBody, err := os.ReadFile(c.New)
	if err != nil {
		return fmt.Errorf("reading new body: %w", err)
	}

	logger := logging.LoggerFromContext(runCtx)
	res, err := preserve.Preserve(string(oldBody), string(newBody))
	degraded := false
	if err != nil {
		// Annotation loss is preferred over blocking a publish: fall back
		// to the regenerated body untouched.
		logging.Degraded(err)
		res = &preserve.Result{Body: string(newBody)}
		degraded = true
	} else {
		logger.Info("preserve finished", "unplaced", len(res.Unplaced))
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(struct {
			*preserve.Result
			Degraded bool `json:"degraded,omitempty"`
		}{res, degraded})
	}

	if c.Out != "" {
		if err := os.WriteFile(c.Out, []byte(res.Body), 0644); err != nil {
			return fmt.Errorf("writing patched body: %w", err)
		}
	} else {
		fmt.Println(res.Body)
	}

	if degraded {
		fmt.Fprintln(os.Stderr, "preservation degraded: markers were not examined")
	}
	reportUnplaced(os.Stderr, res.Unplaced)
	return nil
}

// MarkersCmd lists the annotation markers present in a body.
type MarkersCmd struct {
	Path string `arg:"" help:"Path to a storage-format body" type:"existingfile"`
}

func (c *MarkersCmd) Run(runCtx context.Context) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	tree, err := storage.Parse(string(data))
	if err != nil {
		return err
	}

	count := 0
	for _, id := range tree.PreOrder() {
		n := tree.Node(id)
		if !n.IsMarker() {
			continue
		}
		count++
		fmt.Printf("  %-40s %q\n", markerRef(n), strings.TrimSpace(n.Text))
	}
	if count == 0 {
		fmt.Println("no markers found")
	}
	return nil
}

func markerRef(n *storage.Node) string {
	if v := n.Attr("ac:ref"); v != "" {
		return v
	}
	return n.Attr("ref")
}

// QueryCmd runs an XPath expression over a body, printing each match.
type QueryCmd struct {
	Path string `arg:"" help:"Path to a storage-format body" type:"existingfile"`
	Expr string `arg:"" help:"XPath expression (e.g. //ac:structured-macro)"`
}

func (c *QueryCmd) Run(runCtx context.Context) error {
	// Compile the expression to check for errors before touching the body.
	if _, err := xpath.Compile(c.Expr); err != nil {
		return fmt.Errorf("invalid xpath: %w", err)
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	prepared := storage.WrapFragment(encoding.ExpandEntities(string(data)))
	doc, err := xmlquery.Parse(strings.NewReader(prepared))
	if err != nil {
		return fmt.Errorf("parsing body: %w", err)
	}

	nodes, err := xmlquery.QueryAll(doc, c.Expr)
	if err != nil {
		return fmt.Errorf("xpath query failed: %w", err)
	}
	for _, n := range nodes {
		fmt.Println(n.OutputXML(true))
	}
	return nil
}

// CheckCmd verifies that a body survives a parse/serialize round-trip.
type CheckCmd struct {
	Path string `arg:"" help:"Path to a storage-format body" type:"existingfile"`
}

func (c *CheckCmd) Run(runCtx context.Context) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	tree, err := storage.Parse(string(data))
	if err != nil {
		return err
	}
	out := storage.Serialize(tree)

	// The serializer must be a fixed point of its own output even when the
	// first pass normalized entities or escaping.
	retree, err := storage.Parse(out)
	if err != nil {
		return fmt.Errorf("reparsing serialized body: %w", err)
	}
	if again := storage.Serialize(retree); again != out {
		return fmt.Errorf("serializer is not stable for %s", c.Path)
	}

	inSum := blake3.Sum256(data)
	outSum := blake3.Sum256([]byte(out))
	fmt.Printf("input:  blake3:%s (%d bytes)\n", hex.EncodeToString(inSum[:]), len(data))
	fmt.Printf("output: blake3:%s (%d bytes)\n", hex.EncodeToString(outSum[:]), len(out))
	if string(data) == out {
		fmt.Println("round-trip: identical")
	} else {
		fmt.Println("round-trip: normalized (entity/escaping differences only)")
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(runCtx context.Context) error {
	fmt.Printf("anchorite %s\n", version)
	return nil
}

// reportUnplaced writes the manual-reconciliation list for markers whose
// anchor text no longer exists in the regenerated body.
func reportUnplaced(w io.Writer, unplaced []preserve.Unplaced) {
	if len(unplaced) == 0 {
		return
	}
	fmt.Fprintf(w, "%d marker(s) could not be placed:\n", len(unplaced))
	for _, u := range unplaced {
		fmt.Fprintf(w, "  %-40s %q\n", u.Ref, u.Text)
	}
}

func main() {
	runCtx := logging.WithRunID(context.Background(), uuid.NewString())
	ctx := kong.Parse(&CLI,
		kong.Name("anchorite"),
		kong.Description("Annotation preservation for regenerated Confluence page bodies"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(runCtx, (*context.Context)(nil)),
	)

	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), format)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
