package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/jccflow/cfa"
	"github.com/dhamidi/jccflow/ebnfimport"
	"github.com/dhamidi/jccflow/format"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		outputFormat string
		groupUnary   bool
		tokens       bool
		ebnfOpts     ebnfimport.Options
	)

	cmd := &cobra.Command{
		Use:   "analyze <file> [production...]",
		Short: "Print nullability, start sets, token bounds and left recursion of productions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enc format.Encoder
			switch outputFormat {
			case "line":
				enc = format.NewLineEncoder(os.Stdout)
			case "json":
				enc = format.NewJSONEncoder(os.Stdout)
			default:
				return fmt.Errorf("unknown format: %s (expected line or json)", outputFormat)
			}

			g, err := loadGrammar(args[0], ebnfOpts)
			if err != nil {
				printErrors(err)
				return err
			}

			report, err := format.NewReport(cfa.New(g, nil), format.ReportOptions{
				Productions: args[1:],
				GroupUnary:  groupUnary,
				Tokens:      tokens,
			})
			if err != nil {
				return err
			}
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "line", "output format (line, json)")
	cmd.Flags().BoolVar(&groupUnary, "group-unary", false, "keep productions matching at most one token as a unit in start sets")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "include the tokens of the lexical grammar")
	ebnfFlags(cmd, &ebnfOpts)

	return cmd
}
