// Package syscallset implements the "syscall.<name>" and
// "syscall.<name>.return" probe-point providers against a static in-memory
// syscall table, standing in for the kernel syscall table the original
// translator consults. Grounded on providers/contract.go's Provider shape
// and on spec.md §4.3's "context variables" mention (a derived probe's
// capability set may contribute extra context-local variables): here each
// syscall's declared argument names become probe-local context variables.
package syscallset

import (
	"fmt"
	"sort"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"
)

// table maps syscall name to its declared argument names, a stand-in for
// the kernel's real syscall table.
var table = map[string][]string{
	"read":    {"fd", "buf", "count"},
	"write":   {"fd", "buf", "count"},
	"open":    {"path", "flags", "mode"},
	"openat":  {"dirfd", "path", "flags", "mode"},
	"close":   {"fd"},
	"exit":    {"code"},
	"fork":    {},
	"execve":  {"path", "argv", "envp"},
	"mmap":    {"addr", "length", "prot", "flags", "fd", "offset"},
	"ioctl":   {"fd", "request", "arg"},
	"connect": {"fd", "addr", "addrlen"},
	"socket":  {"domain", "type", "protocol"},
}

// Provider binds every table entry at "syscall.<name>" and
// "syscall.<name>.return".
type Provider struct{}

func (Provider) Name() string { return "syscallset" }

func (Provider) Register(root *matchtree.Node) {
	syscallNode := root.Bind(matchtree.Key{Name: "syscall"})
	for name, args := range table {
		nameNode := syscallNode.Bind(matchtree.Key{Name: name})
		nameNode.Builder = builder{name: name, args: args, variant: "entry"}
		nameNode.Bind(matchtree.Key{Name: "return"}).Builder = builder{name: name, args: args, variant: "return"}
	}
}

type builder struct {
	name    string
	args    []string
	variant string
}

func (b builder) Build(sess *session.Session, source *ast.Probe, spec *ast.ProbePointSpec, params map[string]string, out *[]*ast.DerivedProbe) error {
	var ctxVars []*ast.VarDecl
	if b.variant == "entry" {
		for _, arg := range b.args {
			ctxVars = append(ctxVars, &ast.VarDecl{Name: arg, Type: ast.Unknown, Scope: ast.ScopeProbeLocal, Location: spec.Location})
		}
	}
	*out = append(*out, &ast.DerivedProbe{
		Source:       source,
		Location:     spec,
		ProviderName: "syscallset",
		Params:       map[string]string{"syscall": b.name, "variant": b.variant},
		ContextVars:  ctxVars,
	})
	return nil
}

// Names returns the supported syscall names in sorted order.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (Provider) String() string {
	return fmt.Sprintf("syscallset(%d syscalls)", len(table))
}

func init() {
	if err := matchtree.DefaultRegistry.RegisterProvider(Provider{}); err != nil {
		panic(err)
	}
}
