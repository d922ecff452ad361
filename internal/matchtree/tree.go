// Package matchtree implements the probe-point match tree from spec.md
// §4.3: providers register match_keys describing the patterns they
// recognize, and a probe-point specification is bound against the tree by
// walking components in order, expanding wildcards deterministically.
// Grounded on the teacher's internal/matcher/tree.go (an ASTMatcher that
// walks a parsed query against a node tree collecting captures), here
// generalized from tree-sitter queries to dotted probe-point components;
// wildcard-glob matching reuses bmatcuk/doublestar/v4 (already wired for
// pass 1b's library-file search) rather than a hand-rolled matcher, since
// doublestar.Match's single-"*" semantics over a path segment are exactly
// the glob spec.md §4.1 describes for a component name.
package matchtree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/diag"
	"github.com/oxhq/stapc/internal/session"
)

// Key identifies one edge out of a match_node: a component name plus the
// parameter kind the registering provider declared for it.
type Key struct {
	Name string
	Kind ast.ParamKind
}

// Builder is the terminal hook a provider attaches to a match_node: given a
// fully resolved specification and its bound parameter map, it appends zero
// or more derived probes to out. Returning an error sets the session's
// try-server flag (spec.md §4.3 "Failure semantics").
type Builder interface {
	Build(sess *session.Session, source *ast.Probe, spec *ast.ProbePointSpec, params map[string]string, out *[]*ast.DerivedProbe) error
}

// Node is one vertex of the match tree.
type Node struct {
	Children map[Key]*Node
	Builder  Builder
}

// NewNode returns an empty node ready for Bind.
func NewNode() *Node {
	return &Node{Children: make(map[Key]*Node)}
}

// Bind returns the child reached via key, creating it if absent. A
// provider may keep binding and return the final node to attach a builder
// to; "a pattern may be a prefix of a longer pattern" (spec.md §4.3), so
// binding past an existing builder node is legal.
func (n *Node) Bind(key Key) *Node {
	if n.Children == nil {
		n.Children = make(map[Key]*Node)
	}
	child, ok := n.Children[key]
	if !ok {
		child = NewNode()
		n.Children[key] = child
	}
	return child
}

// kindRank orders parameter kinds for deterministic tie-breaking:
// number < string < none, per SPEC_FULL.md's resolution of spec.md §9's
// open question on wildcard expansion order.
func kindRank(k ast.ParamKind) int {
	switch k {
	case ast.ParamNumber:
		return 0
	case ast.ParamString:
		return 1
	default:
		return 2
	}
}

type state struct {
	node   *Node
	params map[string]string
}

func cloneParams(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// matchingKeys returns comp's candidate children, sorted deterministically:
// lexicographic by name, ties broken by kindRank.
func matchingKeys(node *Node, comp ast.ProbePointComponent) []Key {
	var keys []Key
	for key := range node.Children {
		if key.Kind != comp.ParamKind {
			continue
		}
		if strings.Contains(comp.Name, "*") {
			ok, err := doublestar.Match(comp.Name, key.Name)
			if err != nil || !ok {
				continue
			}
		} else if comp.Name != key.Name {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return kindRank(keys[i].Kind) < kindRank(keys[j].Kind)
	})
	return keys
}

// walk expands spec's components against root, threading the parameter map
// as literal-valued components are consumed, and returns every reached
// state (each may or may not carry a Builder).
func walk(root *Node, spec *ast.ProbePointSpec) []state {
	states := []state{{node: root, params: map[string]string{}}}
	for _, comp := range spec.Components {
		var next []state
		for _, st := range states {
			for _, key := range matchingKeys(st.node, comp) {
				params := cloneParams(st.params)
				if comp.HasParam {
					switch comp.ParamKind {
					case ast.ParamString:
						params[comp.Name] = comp.StringArg
					case ast.ParamNumber:
						params[comp.Name] = strconv.FormatInt(comp.NumberArg, 10)
					}
				}
				next = append(next, state{node: st.node.Children[key], params: params})
			}
		}
		states = next
		if len(states) == 0 {
			break
		}
	}
	return states
}

func specString(spec *ast.ProbePointSpec) string {
	parts := make([]string, len(spec.Components))
	for i, c := range spec.Components {
		parts[i] = c.Name
	}
	return strings.Join(parts, ".")
}

// Match binds spec against root, invoking every reached builder in the
// deterministic order walk produces (spec.md §4.3 "Determinism"), and
// records a MatchError (suppressed when listing is true, per spec.md §7)
// if nothing matched and the spec was not marked optional.
func Match(root *Node, sess *session.Session, source *ast.Probe, spec *ast.ProbePointSpec, listing bool) []*ast.DerivedProbe {
	var out []*ast.DerivedProbe
	for _, st := range walk(root, spec) {
		if st.node.Builder == nil {
			continue
		}
		if err := st.node.Builder.Build(sess, source, spec, st.params, &out); err != nil {
			sess.SetTryServer()
			sess.Diagnostics.Add(diag.CodeBuilderError, spec.Location, "probe point %q: %s", specString(spec), err)
		}
	}
	if len(out) == 0 && !spec.Optional {
		msg := fmt.Sprintf("probe point %q does not match any known provider", specString(spec))
		if listing {
			sess.Diagnostics.AddSuppressed(diag.CodeMatchError, spec.Location, "%s", msg)
		} else {
			sess.Diagnostics.Add(diag.CodeMatchError, spec.Location, "%s", msg)
		}
	}
	return out
}
