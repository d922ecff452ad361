// Command stapc-listdiff compares the canonical listing dump (internal/
// listing, spec.md §4.7) of two scripts and prints their unified diff,
// grounded on the teacher's providers/base/provider.go generateDiff
// helper (pmezard/go-difflib's UnifiedDiff/GetUnifiedDiffString), useful
// for spotting accidental probe-resolution regressions between two
// revisions of the same tapset.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oxhq/stapc/internal/config"
	"github.com/oxhq/stapc/internal/driver"
	"github.com/oxhq/stapc/internal/listing"
	"github.com/oxhq/stapc/internal/logx"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"

	_ "github.com/oxhq/stapc/providers/beginend"
	_ "github.com/oxhq/stapc/providers/syscallset"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <script-a.stp> <script-b.stp>\n", os.Args[0])
		os.Exit(2)
	}

	dumpA, err := dumpFor(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	dumpB, err := dumpFor(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if dumpA.Text == dumpB.Text {
		fmt.Println("no differences")
		return
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(dumpA.Text),
		B:        difflib.SplitLines(dumpB.Text),
		FromFile: os.Args[1],
		ToFile:   os.Args[2],
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(text)
	os.Exit(1)
}

// dumpFor runs the translator's front/middle-end over path and formats its
// canonical dump directly, rather than asking the driver to print one
// itself (cfg.Listing stays false: we want the session, not stdout noise).
func dumpFor(path string) (listing.Result, error) {
	sess := session.New()
	cfg := &config.Config{Script: path, Macros: make(map[string]string)}
	log := logx.New(os.Stderr, 0)

	d := driver.New(sess, cfg, log, matchtree.DefaultRegistry)
	if _, err := d.Run(context.Background(), nil, nil); err != nil {
		return listing.Result{}, fmt.Errorf("translating %s: %w", path, err)
	}
	return listing.Format(sess, listing.Options{Verbose: true, Vars: true}), nil
}
