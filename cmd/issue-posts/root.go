/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/toothbrush/issue-posts/config"
)

var (
	// Store the result of binding cobra flags
	ConfigPath   string
	ConfigActual string
	Debug        bool
	Quiet        bool

	APIURL        string
	SourceRepo    string
	HostingRepo   string
	HostingHost   string
	HostingBranch string
	CommitMessage string
	CommitAuthor  string
	DataDir       string
	AssetsDir     string
	WorkDir       string
	HTTPTimeout   time.Duration
	PostLabels    []string

	Prune             bool
	ConvertHTMLImages bool
	WithVCR           bool
	Workers           int

	ParsedConfig config.File

	// Resolved is the effective configuration: flags over environment over file over defaults.
	Resolved config.Config
)

var rootCmd = &cobra.Command{
	Use:   "issue-posts",
	Short: "Turn labelled GitHub issues into blog post data",
	Long: `
Write your blog posts as GitHub issues.  This tool finds the open issues carrying a post label,
mirrors the images they reference, and writes one JSON file per post for the static site generator.

Without a subcommand it behaves like "issue-posts sync".
`,
	Args:          cobra.ExactArgs(0),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd, os.Getenv)
	},
	RunE: runSync,
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "config file location (default: ~/.config/issue-posts.yaml, respects ISSUE_POSTS_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().BoolVarP(&Quiet, "quiet", "q", false, "don't draw a progress bar")

	rootCmd.PersistentFlags().StringVar(&APIURL, "api-url", "", "GitHub API base URL (GITHUB_API_URL)")
	rootCmd.PersistentFlags().StringVar(&SourceRepo, "source-repo", "", "owner/name of the repository holding the post issues (CONTENT_REPO)")
	rootCmd.PersistentFlags().StringVar(&HostingRepo, "hosting-repo", "", "owner/name of the site repository to publish into (HOSTING_REPO)")
	rootCmd.PersistentFlags().StringVar(&HostingHost, "hosting-host", "", "git host of the hosting repository (HOSTING_HOST)")
	rootCmd.PersistentFlags().StringVar(&HostingBranch, "hosting-branch", "", "branch to push generated posts to (HOSTING_BRANCH)")
	rootCmd.PersistentFlags().StringVar(&CommitMessage, "commit-message", "", "commit message used when publishing (HOSTING_COMMIT_MESSAGE)")
	rootCmd.PersistentFlags().StringVar(&CommitAuthor, "commit-author", "", "\"Name <email>\" recorded on publish commits (HOSTING_COMMIT_AUTHOR)")
	rootCmd.PersistentFlags().StringVar(&DataDir, "data-dir", "", "where post JSON files are written by sync (POSTS_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&AssetsDir, "assets-dir", "", "where mirrored images are written by sync (POSTS_ASSETS_DIR)")
	rootCmd.PersistentFlags().StringVar(&WorkDir, "work-dir", "", "scratch tree used by publish (POSTS_WORK_DIR)")
	rootCmd.PersistentFlags().DurationVar(&HTTPTimeout, "http-timeout", 0, "timeout for every HTTP request (POSTS_HTTP_TIMEOUT)")
	rootCmd.PersistentFlags().StringSliceVar(&PostLabels, "post-labels", []string{}, "labels that mark an issue as a post (POST_LABELS)")

	addRunFlags(rootCmd.Flags(), true)
}

// addRunFlags registers the flags shared by the commands that fetch issues.
func addRunFlags(fs *pflag.FlagSet, withPrune bool) {
	if withPrune {
		fs.BoolVar(&Prune, "prune", false, "delete posts and assets whose issue is no longer a post (POSTS_PRUNE)")
	}
	fs.BoolVar(&ConvertHTMLImages, "convert-html-images", false, "mirror images embedded as <img> tags too (POSTS_CONVERT_HTML_IMAGES)")
	fs.BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to record and replay HTTP traffic")
	fs.IntVar(&Workers, "workers", 0, "number of issues to process at once (POSTS_WORKERS)")
}

func initializeConfig(cmd *cobra.Command, getenv func(string) string) error {
	explicit := true
	path := ConfigPath
	if path == "" {
		// Did the user provide an ENV?
		path = getenv("ISSUE_POSTS_CONFIG")
	}
	if path == "" {
		// As fallback, search for config in home XDG-ish directory
		path = config.DefaultFile
		explicit = false
	}

	parsed, actual, err := config.LoadFile(path, explicit)
	ConfigActual = actual
	if err != nil {
		return err
	}
	ParsedConfig = parsed
	debugLog("config file: %s\n", ConfigActual)

	if err := bindFlags(cmd, ParsedConfig, getenv); err != nil {
		return fmt.Errorf("issue-posts: failed to bind flags: %w", err)
	}

	resolved, err := config.FromEnv(getenv)
	if err != nil {
		return err
	}
	applyFlags(cmd, &resolved)
	Resolved = resolved

	return nil
}

// Bind each value from the YAML file to its flag, unless the flag was given on the command line
// or one of the field's environment variables is set.
func bindFlags(cmd *cobra.Command, v config.File, getenv func(string) string) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("issue-posts: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// e.g. `list posts` has no --prune, but the file may well set it
			continue
		}
		if cmd.Flags().Changed(key) || envSet(field.Tag("env"), getenv) {
			continue
		}

		switch field.Kind() {
		case reflect.Ptr:
			switch p := field.Value().(type) {
			case *bool:
				if p != nil {
					cmd.Flags().Set(key, strconv.FormatBool(*p))
				}
			case *int:
				if p != nil {
					cmd.Flags().Set(key, strconv.Itoa(*p))
				}
			default:
				return fmt.Errorf("issue-posts: found unrecognised field: %s", field.Name())
			}

		case reflect.String:
			s, ok := field.Value().(string)
			if !ok {
				return fmt.Errorf("issue-posts: found unrecognised field: %s", field.Name())
			}
			if s != "" {
				if err := cmd.Flags().Set(key, s); err != nil {
					return &config.Error{Field: key, Reason: fmt.Sprintf("bad value %q in config file", s), Err: err}
				}
			}

		case reflect.Slice:
			ss, ok := field.Value().([]string)
			if !ok {
				return fmt.Errorf("issue-posts: found unrecognised field: %s", field.Name())
			}
			for _, s := range ss {
				// yes, repeatedly calling Set() appends to the slice...
				cmd.Flags().Set(key, s)
			}

		default:
			return fmt.Errorf("issue-posts: found unrecognised field: %s", field.Name())
		}
	}

	return nil
}

func envSet(tag string, getenv func(string) string) bool {
	for _, name := range strings.Split(tag, ",") {
		if name != "" && strings.TrimSpace(getenv(name)) != "" {
			return true
		}
	}
	return false
}

// applyFlags copies every flag that was set, on the command line or from the file, over c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed

	strs := map[string]struct {
		dst *string
		v   string
	}{
		"api-url":        {&c.APIBaseURL, APIURL},
		"source-repo":    {&c.SourceRepo, SourceRepo},
		"hosting-repo":   {&c.HostingRepo, HostingRepo},
		"hosting-host":   {&c.HostingHost, HostingHost},
		"hosting-branch": {&c.HostingBranch, HostingBranch},
		"commit-message": {&c.CommitMessage, CommitMessage},
		"commit-author":  {&c.CommitAuthor, CommitAuthor},
		"data-dir":       {&c.DataDir, DataDir},
		"assets-dir":     {&c.AssetsDir, AssetsDir},
		"work-dir":       {&c.WorkDir, WorkDir},
	}
	for key, s := range strs {
		if changed(key) {
			*s.dst = s.v
		}
	}

	if changed("post-labels") {
		c.PostLabels = config.SplitLabels(strings.Join(PostLabels, ","))
	}
	if changed("http-timeout") {
		c.HTTPTimeout = HTTPTimeout
	}
	if changed("workers") {
		c.Workers = Workers
	}
	if changed("prune") {
		c.Prune = Prune
	}
	if changed("convert-html-images") {
		c.ConvertHTMLImages = ConvertHTMLImages
	}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "issue-posts: %v\n", err)

		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			return 2
		}
		return 1
	}

	return 0
}
