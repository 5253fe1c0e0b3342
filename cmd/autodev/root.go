package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autodev/pkg/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "autodev",
		Short: "LLM agent pipeline for website projects",
		Long: `autodev turns a short website description into a project fact sheet.

A solution architect agent decides the project scope, looks up public API
endpoints the site can use, and drops the endpoints that do not respond.

Credentials are read from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY,
GEMINI_API_KEY or OLLAMA_HOST, depending on the model).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.String())
		},
	}
}
