/*
Package cli provides shared helpers for the caldera command.

Error types:

ConfigError and CommandError give command failures a uniform shape, so
the top-level error line names either the offending config field or the
failing verb:

	return cli.NewConfigError("channel.repository", "repository is required")
	return cli.NewCommandError("build", err)

Format flags:

ParseFormat validates a --format flag value against the formats a
command supports:

	format, err := cli.ParseFormat(flags.format, cli.FormatText, cli.FormatJSON)

Wait feedback:

WaitReporter prints periodic status lines while a command blocks, such
as the gate waiting for certificate artifacts:

	reporter := cli.NewWaitReporter(os.Stdout, 30*time.Second, g.Missing)
	reporter.Start()
	defer reporter.Stop()

Signal handling:

SetupSignalHandler returns a context canceled on SIGINT or SIGTERM; a
second signal force-quits:

	ctx := cli.SetupSignalHandler()
	if err := g.Wait(ctx); err != nil {
		return err
	}
*/
package cli
