package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cvhdl/pkg/design"
	"cvhdl/pkg/schema"
	"cvhdl/pkg/subset"
)

// lint: subset scan plus design rules, no output written
func (a *app) lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <input.c>",
		Short: "Check a source file for unsupported C and VHDL design problems",
		Long: "Check a source file for unsupported C and VHDL design problems.\n\n" +
			"Unsupported C constructs reported as " + subset.Code + ":\n  " +
			strings.Join(subset.Constructs(), ", ") + "\n",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushMetrics()

			u, err := a.compile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.lint(cmd.Context(), u); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d error(s), %d warning(s)\n",
				args[0], a.reporter.ErrorCount(), a.reporter.WarningCount())
			if a.reporter.HasErrors() {
				return errFailed
			}
			return nil
		},
	}
}

// facts: design facts as JSON
func (a *app) factsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "facts <input.c>",
		Short: "Print the design facts of a source file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.compile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			facts := design.Extract(u.result.Program, u.result.Context)
			v, err := schema.New()
			if err != nil {
				return err
			}
			if err := v.ValidateFacts(facts); err != nil {
				return err
			}

			data, err := json.MarshalIndent(facts, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling facts: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
