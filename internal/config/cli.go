// cli.go builds a Config from command-line flags, merging over whatever
// FromEnvironment already populated, CLI always winning — the same two-
// layer shape as the teacher's config.go (env defaults) + cli.go (pflag
// overlay, BuildConfigFromFlags) pair.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// BuildConfigFromFlags parses args against a pflag.FlagSet using spec.md
// §6's CLI flag subset and merges the result over base (normally the
// result of FromEnvironment). It returns the merged config and the
// positional arguments pflag left over (the script filename, if any).
func BuildConfigFromFlags(base *Config, args []string) (*Config, []string, error) {
	fs := pflag.NewFlagSet("stapc", pflag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	fs.BoolP("help", "h", false, "show this help message and exit")
	lastPass := fs.StringP("pass", "p", "", "stop after pass N (1..5)")
	verbose := fs.StringP("verbose", "v", "", "verbosity mask per pass (parse,resolve,derive,infer,all)")
	vp := fs.String("vp", "", "verbosity mask per pass; same as --verbose")
	listing := fs.BoolP("list", "l", false, "listing mode: format resolved probes and exit")
	listingVars := fs.BoolP("list-vars", "L", false, "listing mode with available variables")
	includeDirs := fs.StringArrayP("include", "I", nil, "prepend to the library-search path")
	guruMode := fs.BoolP("guru", "g", false, "guru mode: permit embedded verbatim target-language code")
	macros := fs.StringArrayP("define", "D", nil, "add a macro definition NAME[=VALUE]")
	inline := fs.StringP("command", "e", "", "run the given script instead of reading a file")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.Changed("help") {
		fs.Usage()
		return nil, nil, flag.ErrHelp
	}

	cfg := mergeConfig(base)

	if fs.Changed("pass") {
		cfg.LastPass = ParseLastPass(*lastPass)
	}
	if fs.Changed("verbose") {
		cfg.VerboseMask = *verbose
	}
	if fs.Changed("vp") {
		cfg.VerboseMask = *vp
	}
	if *listing {
		cfg.Listing = true
	}
	if *listingVars {
		cfg.Listing = true
		cfg.ListingVars = true
	}
	cfg.LibraryRoots = append(append([]string(nil), *includeDirs...), cfg.LibraryRoots...)
	if *guruMode {
		cfg.GuruMode = true
	}
	for _, m := range *macros {
		name, value := ParseMacro(m)
		cfg.Macros[name] = value
	}
	if *inline != "" {
		cfg.InlineScript = *inline
	}

	remaining := fs.Args()
	if cfg.InlineScript == "" && len(remaining) > 0 {
		cfg.Script = remaining[0]
	}

	return cfg, remaining, nil
}

func mergeConfig(base *Config) *Config {
	if base == nil {
		base = FromEnvironment()
	}
	merged := *base
	merged.Macros = make(map[string]string, len(base.Macros))
	for k, v := range base.Macros {
		merged.Macros[k] = v
	}
	merged.LibraryRoots = append([]string(nil), base.LibraryRoots...)
	return &merged
}

// LoadOptionsFile reads the startup options file from cfg.OptionsDir (named
// by STAPC_CONF_DIR, per spec.md §6) using godotenv, returning its entries
// as "--flag=value"-shaped argv tokens to prepend before flag parsing. A
// missing directory or file is not an error — the options file is always
// optional.
func LoadOptionsFile(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	path := dir + "/stapc.options"
	values, err := godotenv.Read(path)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading options file %s: %w", path, err)
	}

	var argv []string
	for key, val := range values {
		flagName := strings.ToLower(strings.ReplaceAll(key, "_", "-"))
		if val == "" {
			argv = append(argv, "--"+flagName)
			continue
		}
		argv = append(argv, "--"+flagName+"="+val)
	}
	return argv, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func printUsage(fs *pflag.FlagSet) {
	fmt.Println("usage: stapc [options] [script-file | -]")
	fs.PrintDefaults()
}
