/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var syncUsage = strings.TrimSpace(`
Fetch every open issue carrying a post label and write its post data into the local site tree
(src/_data/posts and src/assets/posts by default).  Nothing is published.
`)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write post data for the labelled issues into the site tree",
	Long:  syncUsage,
	Args:  cobra.ExactArgs(0),
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	addRunFlags(syncCmd.Flags(), true)
}

func runSync(cmd *cobra.Command, args []string) (err error) {
	cfg := Resolved
	if err := cfg.Validate(); err != nil {
		return err
	}
	debugLog("resolved config: %+v\n", cfg.Redacted())

	client, stop, err := httpClient(cfg)
	if err != nil {
		return err
	}
	defer stopRecorder(stop, &err)

	logger := newLogger()
	pipeline, err := newPipeline(cfg, client, cfg.DataDir, cfg.AssetsDir, logger)
	if err != nil {
		return err
	}
	pipeline.Prune = cfg.Prune

	summary, err := pipeline.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	printSummary(os.Stdout, summary)
	return nil
}
