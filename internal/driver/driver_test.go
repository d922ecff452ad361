package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/stapc/internal/config"
	"github.com/oxhq/stapc/internal/logx"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"

	_ "github.com/oxhq/stapc/providers/beginend"
)

func newDriver(cfg *config.Config) *Driver {
	sess := session.New()
	log := logx.New(&bytes.Buffer{}, 0)
	return New(sess, cfg, log, matchtree.DefaultRegistry)
}

func TestRunInlineScriptListingModeDumpsProbe(t *testing.T) {
	cfg := &config.Config{InlineScript: "probe begin { }", Listing: true, Macros: map[string]string{}}
	d := newDriver(cfg)

	code, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRunStopsAfterPass1(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "tapset.stp")
	require.NoError(t, os.WriteFile(libPath, []byte("global shared = 1"), 0o644))

	cfg := &config.Config{InlineScript: "probe begin { }", LastPass: PassParseUser, LibraryRoots: []string{dir}, Macros: map[string]string{}}
	d := newDriver(cfg)

	code, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.NotNil(t, d.sess.UserFile)
	assert.Len(t, d.sess.LibraryFiles, 1)
	assert.Nil(t, d.sess.Probes)
}

func TestRunUnresolvedSymbolExitsWithError(t *testing.T) {
	cfg := &config.Config{InlineScript: "probe begin { printf(\"%d\", ghost) }", Macros: map[string]string{}}
	d := newDriver(cfg)

	code, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestParseLibrariesLoadsLibraryDistinctFromUserScript(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.stp")
	require.NoError(t, os.WriteFile(userPath, []byte("probe begin { }"), 0o644))

	libDir := filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	libPath := filepath.Join(libDir, "tapset.stp")
	require.NoError(t, os.WriteFile(libPath, []byte("global shared = 1"), 0o644))

	cfg := &config.Config{Script: userPath, LibraryRoots: []string{libDir}, Macros: map[string]string{}}
	d := newDriver(cfg)

	require.NoError(t, d.parseUserScript(nil))
	require.NoError(t, d.parseLibraries(context.Background()))

	require.Len(t, d.sess.LibraryFiles, 1)
	assert.Equal(t, "shared", d.sess.LibraryFiles[0].Globals[0].Name)
}

func TestParseLibrariesRejectsSameInodeAsUserScript(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "same.stp")
	require.NoError(t, os.WriteFile(scriptPath, []byte("probe begin { }"), 0o644))

	cfg := &config.Config{Script: scriptPath, LibraryRoots: []string{dir}, Macros: map[string]string{}}
	d := newDriver(cfg)

	before := len(d.sess.Diagnostics.All())
	require.NoError(t, d.parseLibraries(context.Background()))
	assert.Empty(t, d.sess.LibraryFiles)
	assert.Greater(t, len(d.sess.Diagnostics.All()), before)
}

func TestLibrarySuffixesOrderedMostSpecificFirst(t *testing.T) {
	cfg := &config.Config{KernelRelease: "6.1.0", Arch: "x86_64"}
	d := newDriver(cfg)

	suffixes := d.librarySuffixes()
	require.Len(t, suffixes, 4)
	assert.Equal(t, filepath.Join("6.1.0", "x86_64"), suffixes[0])
	assert.Equal(t, "6.1.0", suffixes[1])
	assert.Equal(t, "x86_64", suffixes[2])
	assert.Equal(t, "", suffixes[3])
}
