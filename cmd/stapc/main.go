// Command stapc is the translator's entry point: it wires config, logging
// and the history store together and drives one translator invocation,
// the same shape as the teacher's demo/cmd/main.go (one cobra.Command, a
// runner built from parsed flags, exit code from its result). Flag parsing
// itself stays on spf13/pflag directly (internal/config/cli.go), matching
// the teacher's own cli.go; cobra only supplies the command shell, usage
// text and -h handling, so DisableFlagParsing hands cobra's raw argv
// straight to config.BuildConfigFromFlags instead of double-parsing it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oxhq/stapc/internal/config"
	"github.com/oxhq/stapc/internal/driver"
	"github.com/oxhq/stapc/internal/history"
	"github.com/oxhq/stapc/internal/logx"
	"github.com/oxhq/stapc/internal/matchtree"
	"github.com/oxhq/stapc/internal/session"

	_ "github.com/oxhq/stapc/providers/beginend"
	"github.com/oxhq/stapc/providers/kernelfunc"
	_ "github.com/oxhq/stapc/providers/syscallset"
)

func main() {
	rootCmd := &cobra.Command{
		Use:                "stapc [options] [script-file | -]",
		Short:              "Translate a kernel-instrumentation script to its resolved, typed AST",
		Long:               "stapc parses, resolves and type-checks a probe script plus its tapset libraries, stopping at -p<N> or running the full front/middle-end.",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStapc(args)
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runStapc builds the session configuration from the environment and argv,
// wires up logging, the provider registry and the history store, then
// drives one translator invocation.
func runStapc(argv []string) error {
	base := config.FromEnvironment()
	if opts, err := config.LoadOptionsFile(base.OptionsDir); err == nil {
		argv = append(opts, argv...)
	}

	cfg, _, err := config.BuildConfigFromFlags(base, argv)
	if err != nil {
		return err
	}

	sess := session.New()
	mask := logx.ParsePassMask(cfg.VerboseMask)
	log := logx.New(os.Stderr, mask)

	if kernelSrc := os.Getenv("STAPC_KERNEL_SOURCE"); kernelSrc != "" {
		if err := matchtree.DefaultRegistry.RegisterProvider(kernelfunc.NewFromDir(kernelSrc)); err != nil {
			log.Error("registering kernelfunc provider failed", "error", err)
		}
	}

	historyDB, err := history.Open(cfg.HistoryPath, mask != 0)
	if err != nil {
		log.Error("opening history store failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sess.Interrupt()
	}()

	d := driver.New(sess, cfg, log, matchtree.DefaultRegistry)
	code, err := d.Run(ctx, historyDB, os.Stdin)
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
