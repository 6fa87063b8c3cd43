/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/toothbrush/issue-posts/internal/termfmt"
	"github.com/toothbrush/issue-posts/postdump"
)

var listPostsUsage = strings.TrimSpace(`
Print the posts in the local post store, newest issue first.  Reads --dir if given, otherwise the
configured data dir.
`)

var ListDir string

var listPostsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Print list of generated posts",
	Long:  listPostsUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ListDir
		if dir == "" {
			dir = Resolved.DataDir
		}

		posts, err := postdump.LoadAll(dir)
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}

		if !isTerminal(os.Stdout) {
			termfmt.SetEnabled(false)
		}
		printPosts(os.Stdout, posts, time.Now())
		return nil
	},
}

func init() {
	listCmd.AddCommand(listPostsCmd)

	listPostsCmd.Flags().StringVar(&ListDir, "dir", "", "post store to read (default: the configured data dir)")
}

func printPosts(w io.Writer, posts []postdump.Post, now time.Time) {
	fmt.Fprintf(w, "%s\n", termfmt.Bold().V(fmt.Sprintf("posts (%d):", len(posts))))
	for _, p := range posts {
		age := p.CreatedAt
		if created, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			age = humanize.RelTime(created, now, "ago", "from now")
		}

		draft := ""
		if p.Draft {
			draft = fmt.Sprintf(" %s", termfmt.Fg(termfmt.Yellow).V("[draft]"))
		}
		fmt.Fprintf(w, "  - %6d  %-16s %s: %s%s\n", p.ID, age, p.Slug, p.Title, draft)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
