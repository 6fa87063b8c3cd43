package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

const DefaultFile = "~/.config/issue-posts.yaml"

// File is the optional YAML config.  Each yaml key doubles as the name of a CLI flag, and the env
// tag lists the environment variables that take precedence over the file.
type File struct {
	Prune             *bool `yaml:"prune" env:"POSTS_PRUNE"`
	ConvertHTMLImages *bool `yaml:"convert-html-images" env:"POSTS_CONVERT_HTML_IMAGES"`
	WithVCR           *bool `yaml:"with-vcr" env:""`
	Workers           *int  `yaml:"workers" env:"POSTS_WORKERS"`

	APIBaseURL    string   `yaml:"api-url" env:"GITHUB_API_URL"`
	SourceRepo    string   `yaml:"source-repo" env:"CONTENT_REPO,GITHUB_REPOSITORY"`
	HostingRepo   string   `yaml:"hosting-repo" env:"HOSTING_REPO"`
	HostingHost   string   `yaml:"hosting-host" env:"HOSTING_HOST"`
	HostingBranch string   `yaml:"hosting-branch" env:"HOSTING_BRANCH"`
	CommitMessage string   `yaml:"commit-message" env:"HOSTING_COMMIT_MESSAGE"`
	CommitAuthor  string   `yaml:"commit-author" env:"HOSTING_COMMIT_AUTHOR"`
	DataDir       string   `yaml:"data-dir" env:"POSTS_DATA_DIR"`
	AssetsDir     string   `yaml:"assets-dir" env:"POSTS_ASSETS_DIR"`
	WorkDir       string   `yaml:"work-dir" env:"POSTS_WORK_DIR"`
	HTTPTimeout   string   `yaml:"http-timeout" env:"POSTS_HTTP_TIMEOUT"`
	PostLabels    []string `yaml:"post-labels" env:"POST_LABELS"`
}

// LoadFile reads the YAML config at path (with ~ expanded).  A missing file is only an error when
// the user asked for that file explicitly; tokens are deliberately not accepted here.
func LoadFile(path string, explicit bool) (File, string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return File{}, path, &Error{Field: "config", Reason: "unable to expand homedir", Err: err}
	}

	source, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return File{}, expanded, nil
	}
	if err != nil {
		return File{}, expanded, &Error{Field: "config", Reason: fmt.Sprintf("couldn't read %s", expanded), Err: err}
	}

	var f File
	// bark if the user sets a key we don't recognise
	if err := yaml.UnmarshalStrict(source, &f); err != nil {
		return File{}, expanded, &Error{Field: "config", Reason: fmt.Sprintf("couldn't parse %s", expanded), Err: err}
	}

	return f, expanded, nil
}
