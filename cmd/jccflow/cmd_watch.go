package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhamidi/jccflow/check"
	"github.com/dhamidi/jccflow/ebnfimport"
	"github.com/dhamidi/jccflow/format"
	"github.com/dhamidi/jccflow/workspace"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		report   bool
		disabled []string
		ebnfOpts ebnfimport.Options
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Check grammars again whenever they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := workspace.Options{EBNF: ebnfOpts}
			for _, code := range disabled {
				opts.Check.Disabled = append(opts.Check.Disabled, check.Code(code))
			}
			w := workspace.New(args[0], opts)

			diags := format.NewTextEncoder(os.Stdout)
			lines := format.NewLineEncoder(os.Stdout)

			fw := workspace.NewFileWatcher(w, interval)
			fw.OnUpdate = func(f *workspace.File) {
				fmt.Printf("== %s\n", f.Path)
				if f.LoadErr != nil {
					printErrors(f.LoadErr)
					return
				}
				diags.Encode(f.Diagnostics)
				if report {
					lines.Encode(f.Report)
				}
			}
			fw.OnRemove = func(path string) {
				fmt.Printf("== %s removed\n", path)
			}

			fw.Start()
			defer fw.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval")
	cmd.Flags().BoolVar(&report, "report", false, "also print the flow report of changed grammars")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "inspection codes to skip")
	ebnfFlags(cmd, &ebnfOpts)

	return cmd
}
