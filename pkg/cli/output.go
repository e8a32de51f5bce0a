package cli

import (
	"fmt"
	"io"
	"time"

	"capl-hq/capl/pkg/batch"
	caplerrors "capl-hq/capl/pkg/capl/errors"
)

const timeRounding = time.Millisecond

// PrintDiagnostics writes each diagnostic to w in its formatted multi-line
// form, followed by a one-line summary.
func PrintDiagnostics(w io.Writer, errs *caplerrors.ErrorList) {
	if errs == nil || !errs.HasErrors() {
		return
	}

	for _, diag := range errs.Errors {
		fmt.Fprint(w, diag.Error())
		fmt.Fprintln(w)
	}

	noun := "errors"
	if errs.Count() == 1 {
		noun = "error"
	}
	fmt.Fprintf(w, "%d %s\n", errs.Count(), noun)
}

// PrintCompileSummary writes a one-line compile result.
func PrintCompileSummary(w io.Writer, sourceFile string, policies, statements, errors int) {
	if errors > 0 {
		fmt.Fprintf(w, "%s: %d policies from %d statements, %d diagnostics\n",
			sourceFile, policies, statements, errors)
		return
	}
	fmt.Fprintf(w, "%s: %d policies from %d statements\n", sourceFile, policies, statements)
}

// PrintBatchSummary writes per-file results and aggregate counts for a
// batch run.
func PrintBatchSummary(w io.Writer, summary *batch.Summary) {
	for _, fr := range summary.Results {
		switch {
		case fr.Skipped:
			fmt.Fprintf(w, "skip  %s (%s)\n", fr.Path, fr.SkipReason)
		case fr.Failed():
			count := 0
			if fr.Result != nil && fr.Result.Diagnostics != nil {
				count = fr.Result.Diagnostics.Count()
			}
			fmt.Fprintf(w, "fail  %s (%d diagnostics)\n", fr.Path, count)
		default:
			fmt.Fprintf(w, "ok    %s (%d policies)\n", fr.Path, len(fr.Result.Policies))
		}
	}

	fmt.Fprintf(w, "\n%d compiled, %d failed, %d skipped, %d policies in %s\n",
		summary.Compiled, summary.Failed, summary.Skipped, summary.Policies,
		summary.Duration.Round(timeRounding))
}
