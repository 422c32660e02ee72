package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhamidi/jccflow/check"
	"github.com/dhamidi/jccflow/ebnfimport"
	"github.com/dhamidi/jccflow/format"
	"github.com/dhamidi/jccflow/workspace"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var (
		outputFormat string
		disabled     []string
		roots        []string
		ebnfOpts     ebnfimport.Options
	)

	cmd := &cobra.Command{
		Use:           "check <file|dir>...",
		Short:         "Inspect grammars for left recursion, shadowed tokens and other defects",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var enc format.DiagnosticEncoder
			switch outputFormat {
			case "text":
				enc = format.NewTextEncoder(os.Stdout)
			case "json":
				enc = format.NewDiagnosticJSONEncoder(os.Stdout)
			default:
				return fmt.Errorf("unknown format: %s (expected text or json)", outputFormat)
			}

			opts := check.Options{Roots: roots}
			for _, code := range disabled {
				opts.Disabled = append(opts.Disabled, check.Code(code))
			}

			paths, err := grammarPaths(args)
			if err != nil {
				return err
			}

			var all []check.Diagnostic
			failed := false
			for _, path := range paths {
				g, err := loadGrammar(path, ebnfOpts)
				if err != nil {
					printErrors(err)
					failed = true
					continue
				}
				all = append(all, check.Grammar(g, opts)...)
			}

			if err := enc.Encode(all); err != nil {
				return err
			}
			if failed {
				return errors.New("some grammars could not be loaded")
			}
			if check.HasErrors(all) {
				return errors.New("grammar has errors")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "inspection codes to skip (e.g. unused-production)")
	cmd.Flags().StringSliceVar(&roots, "root", nil, "extra root productions for the unused production inspection")
	ebnfFlags(cmd, &ebnfOpts)

	return cmd
}

// grammarPaths expands directories into the grammar files below them.
func grammarPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && workspace.IsGrammarFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return paths, nil
}
