// Package config resolves the run configuration once at process start.  Nothing below the CLI
// reads the environment; everything is passed in through Config.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIBaseURL string `yaml:"api-url"`

	// owner/name of the repository whose issues are posts
	SourceRepo string `yaml:"source-repo"`
	ReadToken  string `yaml:"read-token,omitempty"`

	// owner/name of the site repository we publish into
	HostingRepo   string `yaml:"hosting-repo"`
	PushToken     string `yaml:"push-token,omitempty"`
	HostingHost   string `yaml:"hosting-host"`
	HostingBranch string `yaml:"hosting-branch"`
	CommitMessage string `yaml:"commit-message"`
	CommitAuthor  string `yaml:"commit-author"`

	// Labels that mark an issue as a post.  They are excluded from a post's tags.
	PostLabels []string `yaml:"post-labels"`

	DataDir   string `yaml:"data-dir"`
	AssetsDir string `yaml:"assets-dir"`
	WorkDir   string `yaml:"work-dir"`

	Workers           int           `yaml:"workers"`
	HTTPTimeout       time.Duration `yaml:"http-timeout"`
	ConvertHTMLImages bool          `yaml:"convert-html-images"`
	Prune             bool          `yaml:"prune"`
}

const (
	DefaultPostLabels    = "POST,isPost"
	DefaultDataDir       = "src/_data/posts"
	DefaultAssetsDir     = "src/assets/posts"
	DefaultWorkDir       = "tmp_generated_posts"
	DefaultBranch        = "main"
	DefaultCommitMessage = "chore: update generated posts from content repo"
	DefaultCommitAuthor  = "issue-posts <issue-posts@users.noreply.github.com>"
)

func Default() Config {
	return Config{
		APIBaseURL:    "https://api.github.com",
		HostingHost:   "github.com",
		HostingBranch: DefaultBranch,
		CommitMessage: DefaultCommitMessage,
		CommitAuthor:  DefaultCommitAuthor,
		PostLabels:    SplitLabels(DefaultPostLabels),
		DataDir:       DefaultDataDir,
		AssetsDir:     DefaultAssetsDir,
		WorkDir:       DefaultWorkDir,
		Workers:       1,
		HTTPTimeout:   30 * time.Second,
	}
}

// FromEnv layers the environment over the defaults.  getenv is os.Getenv outside of tests.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()
	if err := c.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ApplyEnv overrides every field whose environment variable is set and non-empty.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v
			}
		}
		return ""
	}
	setString := func(dst *string, keys ...string) {
		if v := first(keys...); v != "" {
			*dst = v
		}
	}

	setString(&c.APIBaseURL, "GITHUB_API_URL")
	setString(&c.SourceRepo, "CONTENT_REPO", "GITHUB_REPOSITORY")
	setString(&c.ReadToken, "CONTENT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN")
	setString(&c.HostingRepo, "HOSTING_REPO")
	setString(&c.PushToken, "HOSTING_PUSH_TOKEN")
	setString(&c.HostingHost, "HOSTING_HOST")
	setString(&c.HostingBranch, "HOSTING_BRANCH")
	setString(&c.CommitMessage, "HOSTING_COMMIT_MESSAGE")
	setString(&c.CommitAuthor, "HOSTING_COMMIT_AUTHOR")
	setString(&c.DataDir, "POSTS_DATA_DIR")
	setString(&c.AssetsDir, "POSTS_ASSETS_DIR")
	setString(&c.WorkDir, "POSTS_WORK_DIR")

	if v := first("POST_LABELS"); v != "" {
		c.PostLabels = SplitLabels(v)
	}

	if v := first("POSTS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Field: "POSTS_WORKERS", Reason: fmt.Sprintf("not a number: %q", v)}
		}
		c.Workers = n
	}

	if v := first("POSTS_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &Error{Field: "POSTS_HTTP_TIMEOUT", Reason: fmt.Sprintf("not a duration: %q", v)}
		}
		c.HTTPTimeout = d
	}

	for key, dst := range map[string]*bool{
		"POSTS_CONVERT_HTML_IMAGES": &c.ConvertHTMLImages,
		"POSTS_PRUNE":               &c.Prune,
	} {
		if v := first(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return &Error{Field: key, Reason: fmt.Sprintf("not a boolean: %q", v)}
			}
			*dst = b
		}
	}

	return nil
}

// SplitLabels turns "POST, isPost," into [POST isPost].
func SplitLabels(csv string) []string {
	labels := []string{}
	for _, l := range strings.Split(csv, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// Validate checks what every run needs.  ValidatePublish adds the hosting side.
func (c Config) Validate() error {
	if c.SourceRepo == "" {
		return &Error{Field: "CONTENT_REPO", Reason: "source repository is required (owner/name)"}
	}
	if !looksLikeRepo(c.SourceRepo) {
		return &Error{Field: "CONTENT_REPO", Reason: fmt.Sprintf("expected owner/name, got %q", c.SourceRepo)}
	}
	if len(c.PostLabels) == 0 {
		return &Error{Field: "POST_LABELS", Reason: "at least one post label is required"}
	}
	if c.Workers < 1 {
		return &Error{Field: "POSTS_WORKERS", Reason: fmt.Sprintf("must be at least 1, got %d", c.Workers)}
	}
	if c.HTTPTimeout <= 0 {
		return &Error{Field: "POSTS_HTTP_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}

func (c Config) ValidatePublish() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HostingRepo == "" {
		return &Error{Field: "HOSTING_REPO", Reason: "hosting repository is required (owner/name)"}
	}
	if !looksLikeRepo(c.HostingRepo) {
		return &Error{Field: "HOSTING_REPO", Reason: fmt.Sprintf("expected owner/name, got %q", c.HostingRepo)}
	}
	if c.PushToken == "" {
		return &Error{Field: "HOSTING_PUSH_TOKEN", Reason: "push token is required to publish"}
	}
	if c.HostingBranch == "" {
		return &Error{Field: "HOSTING_BRANCH", Reason: "branch must not be empty"}
	}
	return c.ValidateWorkDir()
}

// Redacted is safe to print.
func (c Config) Redacted() Config {
	if c.ReadToken != "" {
		c.ReadToken = "[redacted]"
	}
	if c.PushToken != "" {
		c.PushToken = "[redacted]"
	}
	return c
}

func looksLikeRepo(s string) bool {
	owner, name, ok := strings.Cut(s, "/")
	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}
