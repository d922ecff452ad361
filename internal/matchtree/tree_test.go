package matchtree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/session"
)

// stubBuilder appends one derived probe tagged with its own name, recording
// call order so tests can assert determinism.
type stubBuilder struct {
	tag   string
	calls *[]string
}

func (b *stubBuilder) Build(sess *session.Session, source *ast.Probe, spec *ast.ProbePointSpec, params map[string]string, out *[]*ast.DerivedProbe) error {
	*b.calls = append(*b.calls, b.tag)
	*out = append(*out, &ast.DerivedProbe{Source: source, Location: spec, ProviderName: b.tag, Params: cloneParams(params)})
	return nil
}

func specOf(names ...string) *ast.ProbePointSpec {
	comps := make([]ast.ProbePointComponent, len(names))
	for i, n := range names {
		comps[i] = ast.ProbePointComponent{Name: n}
	}
	return &ast.ProbePointSpec{Components: comps}
}

func TestMatchSingleBuiltin(t *testing.T) {
	root := NewNode()
	var calls []string
	root.Bind(Key{Name: "begin"}).Builder = &stubBuilder{tag: "begin", calls: &calls}

	sess := session.New()
	out := Match(root, sess, &ast.Probe{}, specOf("begin"), false)
	require.Len(t, out, 1)
	assert.Equal(t, "begin", out[0].ProviderName)
	assert.Zero(t, sess.Diagnostics.ErrorCount())
}

func TestMatchPrefixSharingDoesNotCrossContaminate(t *testing.T) {
	root := NewNode()
	var calls []string
	root.Bind(Key{Name: "a"}).Bind(Key{Name: "b"}).Bind(Key{Name: "c"}).Builder = &stubBuilder{tag: "c", calls: &calls}
	root.Bind(Key{Name: "a"}).Bind(Key{Name: "b"}).Bind(Key{Name: "d"}).Builder = &stubBuilder{tag: "d", calls: &calls}

	sess := session.New()
	out := Match(root, sess, &ast.Probe{}, specOf("a", "b", "c"), false)
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].ProviderName)
	assert.Equal(t, []string{"c"}, calls)
}

func TestMatchWildcardExpandsDeterministically(t *testing.T) {
	root := NewNode()
	var calls []string
	a := root.Bind(Key{Name: "a"})
	for _, name := range []string{"z", "x", "y"} {
		a.Bind(Key{Name: name}).Builder = &stubBuilder{tag: name, calls: &calls}
	}

	sess := session.New()
	out := Match(root, sess, &ast.Probe{}, specOf("a", "*"), false)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"x", "y", "z"}, calls) // lexicographic, not insertion order
}

func TestMatchNoCandidateIsMatchErrorUnlessOptional(t *testing.T) {
	root := NewNode()
	sess := session.New()
	out := Match(root, sess, &ast.Probe{}, specOf("nope"), false)
	assert.Empty(t, out)
	assert.Equal(t, 1, sess.Diagnostics.ErrorCount())

	sess2 := session.New()
	optional := specOf("nope")
	optional.Optional = true
	out2 := Match(root, sess2, &ast.Probe{}, optional, false)
	assert.Empty(t, out2)
	assert.Zero(t, sess2.Diagnostics.ErrorCount())
}

func TestMatchErrorsAreSuppressedInListingMode(t *testing.T) {
	root := NewNode()
	sess := session.New()
	Match(root, sess, &ast.Probe{}, specOf("nope"), true)
	assert.Zero(t, sess.Diagnostics.ErrorCount())
	assert.Len(t, sess.Diagnostics.All(), 1)
}

type failingBuilder struct{}

func (failingBuilder) Build(sess *session.Session, source *ast.Probe, spec *ast.ProbePointSpec, params map[string]string, out *[]*ast.DerivedProbe) error {
	return fmt.Errorf("kernel symbol unavailable")
}

func TestMatchBuilderFailureSetsTryServerAndRecordsError(t *testing.T) {
	root := NewNode()
	root.Bind(Key{Name: "x"}).Builder = failingBuilder{}

	sess := session.New()
	out := Match(root, sess, &ast.Probe{}, specOf("x"), false)
	assert.Empty(t, out)
	assert.True(t, sess.TryServer())
	assert.Equal(t, 1, sess.Diagnostics.ErrorCount())
}

func TestKernelFunctionParamKeyedByStringKind(t *testing.T) {
	root := NewNode()
	var calls []string
	root.Bind(Key{Name: "kernel"}).
		Bind(Key{Name: "function", Kind: ast.ParamString}).
		Builder = &stubBuilder{tag: "kernelfunc", calls: &calls}

	spec := &ast.ProbePointSpec{Components: []ast.ProbePointComponent{
		{Name: "kernel"},
		{Name: "function", HasParam: true, ParamKind: ast.ParamString, StringArg: "sys_read"},
	}}

	sess := session.New()
	out := Match(root, sess, &ast.Probe{}, spec, false)
	require.Len(t, out, 1)
	assert.Equal(t, "sys_read", out[0].Params["function"])
}
