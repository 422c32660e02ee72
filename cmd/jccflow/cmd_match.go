package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/jccflow/ebnfimport"
	"github.com/dhamidi/jccflow/grammar"
	"github.com/dhamidi/jccflow/lexical"
	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	var (
		state    string
		kinds    string
		ebnfOpts ebnfimport.Options
	)

	cmd := &cobra.Command{
		Use:   "match <file> <text>",
		Short: "Print the token that matches the longest prefix of text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := lexical.ParseKindSet(kinds)
			if err != nil {
				return err
			}

			g, err := loadGrammar(args[0], ebnfOpts)
			if err != nil {
				printErrors(err)
				return err
			}
			lg := lexical.New(g)
			if _, ok := lg.State(state); !ok {
				return fmt.Errorf("unknown lexical state %q", state)
			}

			text := args[1]
			t, n := lg.MatchLiteral(text, state, set)
			if t == nil {
				return fmt.Errorf("no token matches %q in state %s", text, state)
			}
			fmt.Printf("%s\t%s\t%q\n", t, t.Kind, text[:n])
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", grammar.DefaultState, "lexical state to match in")
	cmd.Flags().StringVar(&kinds, "kinds", "TOKEN", "token kinds to consider (e.g. TOKEN,SKIP or ALL)")
	ebnfFlags(cmd, &ebnfOpts)

	return cmd
}

func newTokenizeCmd() *cobra.Command {
	var ebnfOpts ebnfimport.Options

	cmd := &cobra.Command{
		Use:   "tokenize <grammar> [input]",
		Short: "Split input into tokens with the lexical grammar (reads stdin without input)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGrammar(args[0], ebnfOpts)
			if err != nil {
				printErrors(err)
				return err
			}

			filename := "<stdin>"
			var data []byte
			if len(args) == 2 {
				filename = args[1]
				data, err = os.ReadFile(filename)
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			lexemes, err := lexical.NewScanner(lexical.New(g), string(data), filename).Tokenize()
			for _, l := range lexemes {
				fmt.Println(l)
			}
			return err
		},
	}

	ebnfFlags(cmd, &ebnfOpts)

	return cmd
}
