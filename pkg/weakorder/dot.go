package weakorder

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

// MaxDiagramElements bounds the diagrams ToDOT will draw (all of S_6).
const MaxDiagramElements = 720

// ToDOT returns a Graphviz DOT representation of the Hasse diagram of the
// right weak order stored in e.
//
// Elements of equal length share a rank, so the identity sits at the top and
// w0 at the bottom. Each edge u -> u·s_i is labelled "s_i". Entries larger
// than MaxDiagramElements fail with UNSUPPORTED.
func ToDOT(e *Entry) (string, error) {
	if !e.Sealed() {
		return "", errs.New(errs.ErrCodeInternal, "entry for n=%d is not sealed", e.N)
	}
	if e.Size() > MaxDiagramElements {
		return "", errs.New(errs.ErrCodeUnsupported,
			"S_%d has %d elements, diagrams are limited to %d", e.N, e.Size(), MaxDiagramElements)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph S%d {\n", e.N)
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, shape=box, style=\"filled,rounded\", fillcolor=white];\n")
	buf.WriteString("  edge [arrowhead=none, fontsize=10];\n\n")

	byRank := make([][]string, e.MaxLength()+1)
	e.Each(func(p perm.Perm, length int, _ []perm.Word) bool {
		id := nodeID(p.Key())
		fmt.Fprintf(&buf, "  %s [label=%q];\n", id, p.Key())
		byRank[length] = append(byRank[length], id)
		return true
	})
	buf.WriteString("\n")
	for _, ids := range byRank {
		buf.WriteString("  { rank=same;")
		for _, id := range ids {
			buf.WriteString(" " + id + ";")
		}
		buf.WriteString(" }\n")
	}
	buf.WriteString("\n")

	e.Each(func(p perm.Perm, _ int, _ []perm.Word) bool {
		for i := 1; i < e.N; i++ {
			if !p.IsAscent(i) {
				continue
			}
			q, _ := p.Mul(i)
			fmt.Fprintf(&buf, "  %s -> %s [label=\"s_%d\"];\n", nodeID(p.Key()), nodeID(q.Key()), i)
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String(), nil
}

// RenderSVG renders the weak-order diagram of e as an SVG document.
//
// RenderSVG generates a DOT representation via ToDOT, then uses Graphviz to
// render it. Errors are returned if Graphviz cannot initialize, the DOT is
// malformed, or rendering fails.
func RenderSVG(ctx context.Context, e *Entry) ([]byte, error) {
	dot, err := ToDOT(e)
	if err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func nodeID(key string) string {
	b := []byte("p")
	for i := 0; i < len(key); i++ {
		if key[i] == ',' {
			b = append(b, '_')
		} else {
			b = append(b, key[i])
		}
	}
	return string(b)
}
