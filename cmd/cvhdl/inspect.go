package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cvhdl/pkg/compiler"
)

// tokens: print the lexer output
func (a *app) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <input.c>",
		Short: "Print the token stream of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tokens := compiler.Lex(string(src))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
			for _, tok := range tokens {
				fmt.Fprintln(w, " ", tok)
			}
			return nil
		},
	}
}

// ast: print the parse tree and the symbol tables
func (a *app) astCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <input.c>",
		Short: "Print the syntax tree and symbol tables of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := compiler.NewContext()
			prog, err := compiler.Parse(string(src), ctx)
			if err != nil {
				a.reportError(args[0], err)
				return errFailed
			}
			if a.cfg.Top != "" {
				if prog, err = compiler.Prune(prog, a.cfg.Top); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "AST")
			compiler.Dump(w, prog)
			fmt.Fprintln(w)
			fmt.Fprint(w, ctx)
			return nil
		},
	}
}
