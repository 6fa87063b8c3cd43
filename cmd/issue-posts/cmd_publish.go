/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toothbrush/issue-posts/publish"
)

var publishUsage = strings.TrimSpace(`
Generate post data into a scratch work dir (tmp_generated_posts by default, wiped first), then
commit it to the hosting repository and push.  Needs HOSTING_REPO and HOSTING_PUSH_TOKEN.
`)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Generate post data and push it to the hosting repository",
	Long:  publishUsage,
	Args:  cobra.ExactArgs(0),
	RunE:  runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	addRunFlags(publishCmd.Flags(), false)
}

func runPublish(cmd *cobra.Command, args []string) (err error) {
	cfg := Resolved
	if err := cfg.ValidatePublish(); err != nil {
		return err
	}

	client, stop, err := httpClient(cfg)
	if err != nil {
		return err
	}
	defer stopRecorder(stop, &err)

	logger := newLogger()
	workDir := cfg.WorkDir
	pipeline, err := newPipeline(cfg, client,
		filepath.Join(workDir, publish.SiteDirs[0]),
		filepath.Join(workDir, publish.SiteDirs[1]),
		logger)
	if err != nil {
		return err
	}
	pipeline.CleanDir = workDir

	summary, err := pipeline.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	printSummary(os.Stdout, summary)

	var publisher publish.Publisher = &publish.GitPublisher{
		Repo:          cfg.HostingRepo,
		Host:          cfg.HostingHost,
		Token:         cfg.PushToken,
		Branch:        cfg.HostingBranch,
		CommitMessage: cfg.CommitMessage,
		CommitAuthor:  cfg.CommitAuthor,
		Logger:        logger,
	}
	ref, err := publisher.Publish(cmd.Context(), workDir)
	if err != nil {
		return err
	}

	fmt.Printf("Published %s@%s at %s\n", cfg.HostingRepo, cfg.HostingBranch, ref)
	return nil
}
