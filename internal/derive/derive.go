// Package derive implements the "derive-probes" elaboration step of
// spec.md §4.3: binding every source probe's probe-point specifications
// against the match tree, and partitioning probes into used/unused by
// whether any specification produced at least one derived probe. Grounded
// on _examples/original_source/elaborate.h's systemtap_session::
// build_derived_probe_group pattern (loop every probe, match every
// location, discard probes that derive nothing) and on
// internal/core/pipeline.go's staged-pass shape for how this reports a
// per-pass error count back to the driver.
package derive

import (
	"context"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/diag"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"
)

// Deriver applies a match tree to every probe in a session.
type Deriver struct {
	root    *matchtree.Node
	diags   *diag.Stream
	listing bool
}

// New prepares a Deriver bound to root. Set listing true when running in
// listing mode (spec.md §7: an unmatched optional-less spec becomes a
// suppressed diagnostic instead of a hard error).
func New(root *matchtree.Node, sess *session.Session, listing bool) *Deriver {
	return &Deriver{root: root, diags: &sess.Diagnostics, listing: listing}
}

// Run matches every probe-point specification of every probe in sess.Probes
// against the match tree, appending each provider's output to the probe's
// Derived slice, then partitions sess.Probes into used (>=1 derived probe)
// and unused (zero). Returns the number of diagnostics added.
func (d *Deriver) Run(ctx context.Context, sess *session.Session) (int, error) {
	mark := d.diags.Mark()

	var used, unused []*ast.Probe
	for _, pr := range sess.Probes {
		if sess.Cancelled(ctx) {
			return d.diags.CountSince(mark), ctx.Err()
		}
		pr.Derived = pr.Derived[:0]
		for _, spec := range pr.Locations {
			out := matchtree.Match(d.root, sess, pr, spec, d.listing)
			pr.Derived = append(pr.Derived, out...)
		}
		if len(pr.Derived) > 0 {
			pr.Referenced = true
			used = append(used, pr)
		} else {
			unused = append(unused, pr)
		}
	}
	sess.Probes, sess.UnusedProbes = used, unused

	return d.diags.CountSince(mark), nil
}
