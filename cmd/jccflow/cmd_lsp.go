package main

import (
	"github.com/dhamidi/jccflow/ebnfimport"
	"github.com/dhamidi/jccflow/workspace"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	var ebnfOpts ebnfimport.Options

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := workspace.NewLSPServer(version, workspace.Options{EBNF: ebnfOpts})
			return server.RunStdio()
		},
	}

	ebnfFlags(cmd, &ebnfOpts)

	return cmd
}
