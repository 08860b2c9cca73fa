/*
Package cli provides shared helpers for the ganymede command: output
formatting, command error types, and signal-aware contexts.

Output Formatting:

Commands render results as text (the default) or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Signal Handling:

Chat calls can be slow; every command that performs network traffic runs
under a context cancelled by SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	answer, err := rt.Chat(ctx, history, nil)
*/
package cli
