// Package driver orchestrates the core passes and its collaborators
// (spec.md §4.6), the same "parse config, build a runner, run it, map
// errors to an exit code" shape as the teacher's cmd/morfx/main.go +
// internal/cli/runner.go pair, generalized from "batch-edit a file tree"
// to "translate one script plus its tapset libraries".
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gorm.io/gorm"

	"github.com/oxhq/stapc/internal/config"
	"github.com/oxhq/stapc/internal/derive"
	"github.com/oxhq/stapc/internal/diag"
	"github.com/oxhq/stapc/internal/history"
	"github.com/oxhq/stapc/internal/infer"
	"github.com/oxhq/stapc/internal/listing"
	"github.com/oxhq/stapc/internal/logx"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/resolver"
	"github.com/oxhq/stapc/internal/session"
	"github.com/oxhq/stapc/internal/stapparse"
	"github.com/oxhq/stapc/internal/token"
)

// Pass numbers, per spec.md §4.6 and the original systemtap's pass
// numbering (_examples/original_source/main.cxx): pass 1 covers both
// parsing sub-stages (1a: user script, 1b: library scripts) and only
// becomes externally visible to -p/--pass once both have run; pass 2 is
// the semantic pass (resolve, derive-probes, infer).
const (
	PassParseUser = 1
	PassParseLibs = 1
	PassSemantic  = 2
)

// Driver runs one translator invocation end to end.
type Driver struct {
	sess     *session.Session
	cfg      *config.Config
	log      *logx.Logger
	registry *matchtree.Registry
}

// New builds a Driver. registry is normally matchtree.DefaultRegistry. The
// session's GuruMode, LastPass and Macros are seeded from cfg immediately.
func New(sess *session.Session, cfg *config.Config, log *logx.Logger, registry *matchtree.Registry) *Driver {
	sess.GuruMode = cfg.GuruMode
	sess.LastPass = cfg.LastPass
	for name, value := range cfg.Macros {
		sess.Macros[name] = value
	}
	return &Driver{sess: sess, cfg: cfg, log: log, registry: registry}
}

// Run executes the driver to completion or to cfg.LastPass, recording one
// history.Run row (SPEC_FULL.md §2) unless historyDB is nil. It returns the
// process exit code per spec.md §7 conventions: 0 clean, 1 parse/resolve/
// match/type errors.
func (d *Driver) Run(ctx context.Context, historyDB *gorm.DB, stdin io.Reader) (int, error) {
	start := time.Now()
	run := history.Run{
		ID:                d.sess.ID.String(),
		ScriptPath:        d.cfg.Script,
		LastPassRequested: d.cfg.LastPass,
		StartedAt:         start,
	}
	defer func() {
		run.FinishedAt = time.Now()
		run.DurationMS = run.FinishedAt.Sub(start).Milliseconds()
		run.ErrorCount = d.sess.Diagnostics.ErrorCount()
		if err := history.Record(historyDB, run); err != nil {
			d.log.Error("recording session history failed", "error", err)
		}
	}()

	code, err := d.runPasses(ctx, stdin, &run)
	return code, err
}

func (d *Driver) runPasses(ctx context.Context, stdin io.Reader, run *history.Run) (int, error) {
	mark := d.sess.Diagnostics.Mark()

	// Pass 1a.
	if err := d.parseUserScript(stdin); err != nil {
		d.log.Error("pass 1a failed", "error", err)
	}
	d.log.Verbose(logx.PassParseUser, "pass 1a complete", "errors", d.sess.Diagnostics.CountSince(mark))

	// Pass 1b.
	mark = d.sess.Diagnostics.Mark()
	if err := d.parseLibraries(ctx); err != nil {
		d.log.Error("pass 1b failed", "error", err)
	}
	d.log.Verbose(logx.PassParseLibrary, "pass 1b complete", "libraries", len(d.sess.LibraryFiles), "errors", d.sess.Diagnostics.CountSince(mark))
	run.LastPassReached = PassParseLibs
	if d.cfg.LastPass == PassParseLibs {
		return d.exitCode(), nil
	}

	// Pass 2: resolve, derive-probes, infer.
	if err := d.runSemanticPass(ctx); err != nil {
		return 0, err
	}
	run.LastPassReached = PassSemantic

	if d.cfg.Listing {
		dump := listing.Format(d.sess, listing.Options{Verbose: d.log.Enabled(logx.AllPasses), Vars: d.cfg.ListingVars})
		run.ListingHash = dump.HashHex()
		d.printDiagnostics()
		fmt.Println(dump.Text)
		return 0, nil
	}

	return d.exitCode(), nil
}

// printDiagnostics prints every visible diagnostic accumulated so far as
// one line "<file>:<line>:<col>: message" (diag.Diagnostic.String, spec.md
// §7), so a user whose script fails to resolve is told what and where.
func (d *Driver) printDiagnostics() {
	for _, diagnostic := range d.sess.Diagnostics.Visible() {
		fmt.Fprintln(os.Stderr, diagnostic)
	}
}

// exitCode prints accumulated diagnostics, then returns the process exit
// code: 0 clean, 1 otherwise.
func (d *Driver) exitCode() int {
	d.printDiagnostics()
	if d.sess.Diagnostics.ErrorCount() > 0 {
		return 1
	}
	return 0
}

func (d *Driver) runSemanticPass(ctx context.Context) error {
	mark := d.sess.Diagnostics.Mark()

	if _, err := resolver.New(d.sess).Run(ctx); err != nil {
		return fmt.Errorf("driver: symbol resolution: %w", err)
	}
	d.log.Verbose(logx.PassResolve, "resolution complete", "errors", d.sess.Diagnostics.CountSince(mark))

	mark = d.sess.Diagnostics.Mark()
	if _, err := derive.New(d.registry.Root(), d.sess, d.cfg.Listing).Run(ctx, d.sess); err != nil {
		return fmt.Errorf("driver: derive-probes: %w", err)
	}
	d.log.Verbose(logx.PassDerive, "derive-probes complete", "probes", len(d.sess.Probes), "unused", len(d.sess.UnusedProbes), "errors", d.sess.Diagnostics.CountSince(mark))

	mark = d.sess.Diagnostics.Mark()
	if _, err := infer.New(d.sess).Run(ctx); err != nil {
		return fmt.Errorf("driver: type inference: %w", err)
	}
	d.log.Verbose(logx.PassInfer, "type inference complete", "errors", d.sess.Diagnostics.CountSince(mark))

	return nil
}

func (d *Driver) parseUserScript(stdin io.Reader) error {
	var src, name string
	switch {
	case d.cfg.InlineScript != "":
		src, name = d.cfg.InlineScript, "<command line>"
	case d.cfg.Script == "-" || (d.cfg.Script == "" && stdin != nil):
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		src, name = string(raw), "<stdin>"
	default:
		raw, err := os.ReadFile(d.cfg.Script)
		if err != nil {
			return fmt.Errorf("reading %s: %w", d.cfg.Script, err)
		}
		src, name = string(raw), d.cfg.Script
	}

	p := stapparse.New(src, name, &d.sess.Diagnostics, d.cfg.GuruMode)
	file, err := p.Parse()
	if err != nil {
		return err
	}
	d.sess.UserFile = file
	return nil
}

// librarySuffixes is the fixed set of versioned subpath suffixes spec.md
// §4.6 names, most specific first: kernel-version/arch, kernel-version,
// arch, empty.
func (d *Driver) librarySuffixes() []string {
	var out []string
	if d.cfg.KernelRelease != "" && d.cfg.Arch != "" {
		out = append(out, filepath.Join(d.cfg.KernelRelease, d.cfg.Arch))
	}
	if d.cfg.KernelRelease != "" {
		out = append(out, d.cfg.KernelRelease)
	}
	if d.cfg.Arch != "" {
		out = append(out, d.cfg.Arch)
	}
	out = append(out, "")
	return out
}

type inodeKey struct {
	dev, ino uint64
}

func statInode(path string) (inodeKey, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return inodeKey{}, false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return inodeKey{}, false
	}
	return inodeKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

func (d *Driver) parseLibraries(ctx context.Context) error {
	userInode, haveUserInode := inodeKey{}, false
	if d.cfg.Script != "" && d.cfg.Script != "-" {
		userInode, haveUserInode = statInode(d.cfg.Script)
	}

	seen := make(map[inodeKey]bool)
	var paths []string
	for _, root := range d.cfg.LibraryRoots {
		for _, suffix := range d.librarySuffixes() {
			dir := root
			if suffix != "" {
				dir = filepath.Join(root, suffix)
			}
			matches, err := doublestar.Glob(os.DirFS(dir), "*.stp")
			if err != nil {
				continue
			}
			for _, m := range matches {
				paths = append(paths, filepath.Join(dir, m))
			}
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		if d.sess.Cancelled(ctx) {
			return nil
		}
		key, ok := statInode(path)
		if ok {
			if seen[key] {
				continue
			}
			seen[key] = true
			if haveUserInode && key == userInode {
				d.sess.Diagnostics.Add(diag.CodeParseError, token.Location{File: path}, "library file %q is the user's own script, skipping", path)
				continue
			}
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			d.sess.Diagnostics.Add(diag.CodeParseError, token.Location{File: path}, "reading library file %q: %s", path, err)
			continue
		}
		p := stapparse.New(string(raw), path, &d.sess.Diagnostics, d.cfg.GuruMode)
		file, err := p.Parse()
		if err != nil {
			continue
		}
		file.IsLibrary = true
		d.sess.LibraryFiles = append(d.sess.LibraryFiles, file)
	}
	return nil
}
