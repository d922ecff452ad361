// Package beginend implements the simplest probe-point providers: "begin",
// "end" and "never", each a single named event with no parameters and
// exactly one derived probe. Grounded on providers/contract.go's minimal
// Provider shape, stripped to its match-tree essentials.
package beginend

import (
	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"
)

// events lists the supported bare probe points.
var events = []string{"begin", "end", "never"}

// Provider binds begin/end/never at the match tree root.
type Provider struct{}

func (Provider) Name() string { return "beginend" }

func (Provider) Register(root *matchtree.Node) {
	for _, name := range events {
		root.Bind(matchtree.Key{Name: name}).Builder = eventBuilder{event: name}
	}
}

type eventBuilder struct{ event string }

func (b eventBuilder) Build(sess *session.Session, source *ast.Probe, spec *ast.ProbePointSpec, params map[string]string, out *[]*ast.DerivedProbe) error {
	*out = append(*out, &ast.DerivedProbe{
		Source:       source,
		Location:     spec,
		ProviderName: "beginend",
		Params:       map[string]string{"event": b.event},
	})
	return nil
}

func init() {
	if err := matchtree.DefaultRegistry.RegisterProvider(Provider{}); err != nil {
		panic(err)
	}
}
