package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"capl-hq/capl/pkg/capl"
	"capl-hq/capl/pkg/cli"
)

var lintFlags struct {
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint <file>...",
	Short: "Validate CAPL sources without emitting policies",
	Long: `Parse and resolve CAPL sources, reporting every diagnostic found.

The lint command runs the full pipeline but discards the generated
policies. Beyond compile diagnostics it warns about variable identifiers
that do not parse as GUIDs, which usually means a copy-paste slip.

Examples:
  # Lint a single file
  caplc lint policies.capl

  # Lint several files, treating warnings as errors
  caplc lint --strict policies.capl more.capl

  # JSON output for CI/CD
  caplc lint --format json policies.capl`,
	Args: cobra.MinimumNArgs(1),
	RunE: lintSources,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the lint outcome for a single source file.
type LintResult struct {
	File     string        `json:"file"`
	Valid    bool          `json:"valid"`
	Errors   []LintFinding `json:"errors,omitempty"`
	Warnings []LintFinding `json:"warnings,omitempty"`
}

// LintFinding is one diagnostic or warning.
type LintFinding struct {
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Type     string `json:"type,omitempty"`
}

func lintSources(cmd *cobra.Command, args []string) error {
	results := make([]LintResult, 0, len(args))
	for _, file := range args {
		results = append(results, lintFile(file))
	}

	if lintFlags.format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return cli.NewCommandError("lint", err)
		}
		return lintVerdict(results)
	}

	for _, result := range results {
		printLintResult(cmd, result)
	}
	return lintVerdict(results)
}

func lintFile(path string) LintResult {
	result := LintResult{File: filepath.Clean(path), Valid: true}

	compiled := capl.CompileFile(path)

	for _, diag := range compiled.Diagnostics.Errors {
		result.Valid = false
		result.Errors = append(result.Errors, LintFinding{
			Line:     diag.Location.Line,
			Column:   diag.Location.Column,
			Rule:     diag.Rule,
			Message:  diag.Message,
			Severity: "error",
			Type:     string(diag.Type),
		})
	}

	if compiled.Program != nil {
		for _, v := range compiled.Program.Variables {
			if _, err := uuid.Parse(v.ID); err != nil {
				result.Warnings = append(result.Warnings, LintFinding{
					Line:     v.Location.Line,
					Column:   v.Location.Column,
					Message:  fmt.Sprintf("identifier %q for variable %s is not a GUID", v.ID, v.Name),
					Severity: "warning",
				})
			}
		}
	}

	return result
}

func printLintResult(cmd *cobra.Command, result LintResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s:\n", result.File)

	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		fmt.Fprintln(out, "  ok")
		return
	}

	for _, finding := range result.Errors {
		printLintFinding(cmd, "error", finding)
	}
	for _, finding := range result.Warnings {
		printLintFinding(cmd, "warning", finding)
	}
}

func printLintFinding(cmd *cobra.Command, severity string, finding LintFinding) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %s: %s", severity, finding.Message)
	if finding.Line > 0 {
		fmt.Fprintf(out, " (line %d", finding.Line)
		if finding.Column > 0 {
			fmt.Fprintf(out, ", col %d", finding.Column)
		}
		fmt.Fprint(out, ")")
	}
	if finding.Type != "" {
		fmt.Fprintf(out, " [%s]", finding.Type)
	}
	fmt.Fprintln(out)
}

func lintVerdict(results []LintResult) error {
	errors, warnings := 0, 0
	for _, result := range results {
		errors += len(result.Errors)
		warnings += len(result.Warnings)
	}

	if errors > 0 {
		return errDiagnostics
	}
	if lintFlags.strict && warnings > 0 {
		return errDiagnostics
	}
	return nil
}
