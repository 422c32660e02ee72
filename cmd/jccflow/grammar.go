package main

import (
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/dhamidi/jccflow/ebnfimport"
	"github.com/dhamidi/jccflow/grammar"
	"github.com/spf13/cobra"
)

// ebnfFlags registers the flags that control the import of .ebnf files.
func ebnfFlags(cmd *cobra.Command, opts *ebnfimport.Options) {
	cmd.Flags().StringSliceVar(&opts.Skip, "skip", nil, "lexical productions of .ebnf grammars that are skipped (e.g. space,comment)")
	cmd.Flags().BoolVar(&opts.IgnoreCase, "ignore-case", false, "match the tokens of .ebnf grammars case-insensitively")
	cmd.Flags().StringVar(&opts.Start, "start", "", "verify .ebnf grammars against this start production")
}

func loadGrammar(path string, opts ebnfimport.Options) (*grammar.Grammar, error) {
	switch filepath.Ext(path) {
	case ".ebnf":
		return ebnfimport.LoadFile(path, opts)
	case ".json":
		return grammar.LoadFile(path)
	default:
		return nil, fmt.Errorf("load grammar: unsupported file type %q (expected .json or .ebnf)", filepath.Ext(path))
	}
}

// printErrors prints every error of an error list on its own line.
func printErrors(err error) {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Println(v.Index(i).Interface())
		}
	} else {
		fmt.Println(err)
	}
}
