/*
Package cli provides command-line helpers for the caplc command.

The cli package includes diagnostic and summary printers, progress
reporters, exit-code conventions, and signal handling shared by the
caplc subcommands.

Progress Reporting:

For long-running batch runs, use the progress reporter:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(totalFiles)
	for i := 0; i < totalFiles; i++ {
		// Compile a file
		progress.Update(i + 1)
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
