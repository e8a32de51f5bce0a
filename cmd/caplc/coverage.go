package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"capl-hq/capl/pkg/cli"
	"capl-hq/capl/pkg/coverage"
)

var coverageFlags struct {
	optimize bool
	gapsOnly bool
	full     bool
}

var coverageCmd = &cobra.Command{
	Use:   "coverage <file>",
	Short: "Report which access scenarios the compiled policies cover",
	Long: `Compile a CAPL source and evaluate every generated policy against a
grid of concrete sign-in scenarios built from the policies' own
condition values.

Each scenario reports its effective outcome: BLOCK, ALLOW, a grant
control such as MFA, or Uncovered when no policy matched. Uncovered
scenarios are the gaps in the rule set.

Examples:
  # Summary plus the uncovered scenarios
  caplc coverage policies.capl

  # Only the gaps
  caplc coverage --gaps-only policies.capl

  # Every scenario with its outcome
  caplc coverage --full policies.capl`,
	Args: cobra.ExactArgs(1),
	RunE: runCoverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)

	coverageCmd.Flags().BoolVar(&coverageFlags.optimize, "optimize", false, "merge paths with identical outcomes before evaluating")
	coverageCmd.Flags().BoolVar(&coverageFlags.gapsOnly, "gaps-only", false, "print only uncovered scenarios")
	coverageCmd.Flags().BoolVar(&coverageFlags.full, "full", false, "print every scenario with its outcome")
}

func runCoverage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if coverageFlags.optimize {
		cfg.Compiler.Optimize = true
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}

	compiler := newCompiler(cfg)
	result := compiler.CompileFile(args[0])

	cli.PrintDiagnostics(cmd.ErrOrStderr(), result.Diagnostics)
	if !result.OK() {
		return errDiagnostics
	}

	report := coverage.Evaluate(result.Policies)
	out := cmd.OutOrStdout()

	if !coverageFlags.gapsOnly {
		fmt.Fprintf(out, "%d policies, %d scenarios, %.1f%% covered\n",
			len(result.Policies), len(report.Outcomes), report.CoverageRatio()*100)
	}

	if coverageFlags.full {
		for _, outcome := range report.Outcomes {
			printOutcome(out, outcome)
		}
		return nil
	}

	gaps := report.Gaps()
	if len(gaps) == 0 {
		if !coverageFlags.gapsOnly {
			fmt.Fprintln(out, "no gaps")
		}
		return nil
	}

	if !coverageFlags.gapsOnly {
		fmt.Fprintf(out, "\n%d uncovered scenarios:\n", len(gaps))
	}
	for _, outcome := range gaps {
		fmt.Fprintf(out, "  %s\n", outcome.Scenario.Label())
	}
	return nil
}

func printOutcome(out io.Writer, outcome *coverage.Outcome) {
	line := fmt.Sprintf("%-10s %s", outcome.Action, outcome.Scenario.Label())
	if len(outcome.SessionControls) > 0 {
		line += " {" + strings.Join(outcome.SessionControls, ", ") + "}"
	}
	fmt.Fprintln(out, line)
}
