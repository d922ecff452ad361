package matchtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nameOnlyProvider struct {
	name string
	key  string
}

func (p nameOnlyProvider) Name() string { return p.name }
func (p nameOnlyProvider) Register(root *Node) {
	root.Bind(Key{Name: p.key}).Builder = &stubBuilder{tag: p.name, calls: &[]string{}}
}

func TestRegistryRejectsDuplicateAndAnonymousNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterProvider(nameOnlyProvider{name: "beginend", key: "begin"}))
	assert.Error(t, r.RegisterProvider(nameOnlyProvider{name: "beginend", key: "end"}))
	assert.Error(t, r.RegisterProvider(nameOnlyProvider{name: "", key: "x"}))
	assert.Equal(t, []string{"beginend"}, r.Providers())
}

func TestRegistryRootReflectsRegistrations(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterProvider(nameOnlyProvider{name: "beginend", key: "begin"}))
	require.NoError(t, r.RegisterProvider(nameOnlyProvider{name: "syscallset", key: "syscall"}))
	_, ok := r.Root().Children[Key{Name: "begin"}]
	assert.True(t, ok)
	_, ok = r.Root().Children[Key{Name: "syscall"}]
	assert.True(t, ok)
}
