package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/checkparams/lsp"
)

func newLSPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start a language server on stdin/stdout that publishes parameter
mismatches and unknown tags as diagnostics while documents are edited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return lsp.NewServer(version, cfg).RunStdio()
		},
	}
}
