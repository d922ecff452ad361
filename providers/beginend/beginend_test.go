package beginend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"
)

func TestBeginEndRegistersAllThreeEvents(t *testing.T) {
	root := matchtree.NewNode()
	Provider{}.Register(root)
	for _, name := range []string{"begin", "end", "never"} {
		_, ok := root.Children[matchtree.Key{Name: name}]
		assert.True(t, ok, "expected %q bound", name)
	}
}

func TestBeginMatchProducesOneDerivedProbe(t *testing.T) {
	root := matchtree.NewNode()
	Provider{}.Register(root)

	spec := &ast.ProbePointSpec{Components: []ast.ProbePointComponent{{Name: "begin"}}}
	sess := session.New()
	out := matchtree.Match(root, sess, &ast.Probe{}, spec, false)
	require.Len(t, out, 1)
	assert.Equal(t, "beginend", out[0].ProviderName)
	assert.Equal(t, "begin", out[0].Params["event"])
}
