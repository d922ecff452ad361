// Package session implements the process-wide container described in
// spec.md §3 "Lifecycles" and §5: one Session per translator invocation,
// owning every parsed and derived AST node, the diagnostic stream, and the
// cooperative-cancellation flags every long-running pass checks. Grounded
// on Design Notes §9 (arena ownership: the session owns everything, freed
// en masse at process exit — in Go this falls out of ordinary GC once the
// Session itself goes out of scope, so no manual arena bookkeeping is
// needed beyond the master slices below) and on the teacher's
// single-mutable-container pattern (one struct threaded by pointer through
// every pass, no locking because passes are totally ordered).
package session

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/diag"
)

// Session owns every file parsed, every probe/function/global declared,
// the partitioned used/unused lists elaboration produces, and the shared
// diagnostic stream.
type Session struct {
	ID uuid.UUID

	// UserFile is the primary script's parse result; LibraryFiles are the
	// tapset files discovered in pass 1b.
	UserFile     *ast.StapFile
	LibraryFiles []*ast.StapFile

	// Partitioned after elaboration (spec.md §3 Invariants).
	Probes        []*ast.Probe
	UnusedProbes  []*ast.Probe
	Functions     []*ast.FuncDecl
	UnusedFuncs   []*ast.FuncDecl
	Globals       []*ast.VarDecl
	UnusedGlobals []*ast.VarDecl

	Diagnostics diag.Stream

	// LastPass stops the driver after the named pass (spec.md §4.6).
	LastPass int

	// GuruMode permits embedded verbatim target-language code (-g).
	GuruMode bool

	// Macros recorded from -D for pass-through to code generation.
	Macros map[string]string

	// tryServer is set when a builder internally fails, per spec.md §4.3
	// "Failure semantics": the driver may then decide to retry via a
	// compile server. The core never acts on it itself.
	tryServer atomic.Bool

	// interrupted is set by a signal handler installed by the CLI
	// entrypoint; the loops listed on Cancelled check it cooperatively.
	interrupted atomic.Bool
}

// New creates an empty session.
func New() *Session {
	return &Session{
		ID:     uuid.New(),
		Macros: make(map[string]string),
	}
}

// SetTryServer records that a builder failed and a compile-server retry may
// help.
func (s *Session) SetTryServer() { s.tryServer.Store(true) }

// TryServer reports whether any builder requested a retry.
func (s *Session) TryServer() bool { return s.tryServer.Load() }

// Interrupt marks the session as having a pending interrupt. Safe to call
// from a signal handler.
func (s *Session) Interrupt() { s.interrupted.Store(true) }

// Interrupted reports whether an interrupt is pending.
func (s *Session) Interrupted() bool { return s.interrupted.Load() }

// Cancelled reports whether ctx or the session's own interrupt flag asks
// the current pass to unwind. The resolver, derive and inferencer loops
// check this before each function or probe, and pass 1b before each library
// file; the parser does not check it.
func (s *Session) Cancelled(ctx context.Context) bool {
	if s.Interrupted() {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// AllFiles returns the user file followed by every library file, the order
// pass 2 walks them in.
func (s *Session) AllFiles() []*ast.StapFile {
	files := make([]*ast.StapFile, 0, 1+len(s.LibraryFiles))
	if s.UserFile != nil {
		files = append(files, s.UserFile)
	}
	files = append(files, s.LibraryFiles...)
	return files
}

// UnifyGlobals merges globals from every file into one list, the view the
// resolver operates over (spec.md §4.4: "all files' globals are unified
// into one list before this pass runs").
func (s *Session) UnifyGlobals() {
	s.Globals = s.Globals[:0]
	for _, f := range s.AllFiles() {
		s.Globals = append(s.Globals, f.Globals...)
	}
}

// UnifyFunctions merges the function registry across files, keyed later by
// (name, arity) during resolution.
func (s *Session) UnifyFunctions() {
	s.Functions = s.Functions[:0]
	for _, f := range s.AllFiles() {
		s.Functions = append(s.Functions, f.Functions...)
	}
}

// UnifyProbes collects every source probe across files.
func (s *Session) UnifyProbes() []*ast.Probe {
	var probes []*ast.Probe
	for _, f := range s.AllFiles() {
		probes = append(probes, f.Probes...)
	}
	return probes
}
