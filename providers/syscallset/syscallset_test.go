package syscallset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"
)

func specOf(names ...string) *ast.ProbePointSpec {
	comps := make([]ast.ProbePointComponent, len(names))
	for i, n := range names {
		comps[i] = ast.ProbePointComponent{Name: n}
	}
	return &ast.ProbePointSpec{Components: comps}
}

func TestSyscallEntryHasArgContextVars(t *testing.T) {
	root := matchtree.NewNode()
	Provider{}.Register(root)

	sess := session.New()
	out := matchtree.Match(root, sess, &ast.Probe{}, specOf("syscall", "read"), false)
	require.Len(t, out, 1)
	assert.Equal(t, "entry", out[0].Params["variant"])
	require.Len(t, out[0].ContextVars, 3)
	assert.Equal(t, "fd", out[0].ContextVars[0].Name)
}

func TestSyscallReturnHasNoContextVars(t *testing.T) {
	root := matchtree.NewNode()
	Provider{}.Register(root)

	sess := session.New()
	out := matchtree.Match(root, sess, &ast.Probe{}, specOf("syscall", "read", "return"), false)
	require.Len(t, out, 1)
	assert.Equal(t, "return", out[0].Params["variant"])
	assert.Empty(t, out[0].ContextVars)
}

func TestSyscallWildcardExpandsAcrossWholeTable(t *testing.T) {
	root := matchtree.NewNode()
	Provider{}.Register(root)

	spec := specOf("syscall", "*")
	sess := session.New()
	out := matchtree.Match(root, sess, &ast.Probe{}, spec, false)
	assert.Len(t, out, len(table))
}
