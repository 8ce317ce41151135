package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/channel"
	"caldera-hq/basalt/pkg/cli"
)

var syncFlags struct {
	repository string
	branch     string
	dir        string
	format     string
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the module channel",
	Long: `Synchronize the local module channel clone with its upstream.

The channel is a Git repository holding the shared module tree. This
command clones it on first use and fast-forwards the existing clone
afterwards. The agent polls the channel on its own; run this for a
one-shot sync, for example before an offline build.

Examples:
  # Sync the configured channel
  caldera sync

  # Sync a specific repository into a scratch directory
  caldera sync --repository https://example.com/basalt-channel.git --dir /tmp/channel

  # Machine-readable result
  caldera sync --format json`,
	Args: cobra.NoArgs,
	RunE: syncChannel,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncFlags.repository, "repository", "", "channel repository URL (default from config)")
	syncCmd.Flags().StringVar(&syncFlags.branch, "branch", "", "branch to track (default from config)")
	syncCmd.Flags().StringVar(&syncFlags.dir, "dir", "", "local clone directory (default from config)")
	syncCmd.Flags().StringVar(&syncFlags.format, "format", "text", "output format: text, json")
}

func syncChannel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	chCfg := cfg.Channel
	if syncFlags.repository != "" {
		chCfg.Repository = syncFlags.repository
	}
	if syncFlags.branch != "" {
		chCfg.Branch = syncFlags.branch
	}
	if syncFlags.dir != "" {
		chCfg.LocalDir = syncFlags.dir
	}

	if chCfg.Repository == "" {
		return cli.NewConfigError("channel.repository", "no channel repository configured (set channel.repository or pass --repository)")
	}

	ch, err := channel.New(&chCfg, commandLogger())
	if err != nil {
		return cli.NewCommandError("sync", err)
	}

	ctx := cli.SetupSignalHandler()
	result, err := ch.Sync(ctx)
	if err != nil {
		return cli.NewCommandError("sync", fmt.Errorf("sync failed: %w", err))
	}

	if syncFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	switch {
	case result.Cloned:
		fmt.Printf("✓ Cloned %s (%s) at %s\n", chCfg.Repository, chCfg.Branch, channel.ShortSHA(result.ToSHA))
		fmt.Printf("  Local clone: %s\n", chCfg.LocalDir)
	case result.HadChanges:
		fmt.Printf("✓ Updated %s -> %s (%d file(s) changed)\n",
			channel.ShortSHA(result.FromSHA), channel.ShortSHA(result.ToSHA), len(result.ChangedFiles))
	default:
		fmt.Printf("✓ Already up to date at %s\n", channel.ShortSHA(result.ToSHA))
	}

	if head, err := ch.Head(); err == nil {
		fmt.Printf("  Head: %s by %s (%s)\n",
			channel.ShortSHA(head.SHA), head.Author, head.Timestamp.Format(time.RFC3339))
	}
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))

	return nil
}
