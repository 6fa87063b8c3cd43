package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ValidateWorkDir refuses work dirs that publish can't safely wipe: the filesystem root, the home
// directory, the current directory or any of its parents, and anything holding the sync output.
func (c Config) ValidateWorkDir() error {
	if strings.TrimSpace(c.WorkDir) == "" {
		return &Error{Field: "POSTS_WORK_DIR", Reason: "work dir must not be empty"}
	}
	work, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return &Error{Field: "POSTS_WORK_DIR", Reason: fmt.Sprintf("couldn't resolve %q", c.WorkDir), Err: err}
	}
	refuse := func(what string) error {
		return &Error{Field: "POSTS_WORK_DIR", Reason: fmt.Sprintf("refusing to use %s as the work dir: it is %s", work, what)}
	}

	if work == filepath.Dir(work) {
		return refuse("the filesystem root")
	}
	if home, err := homedir.Dir(); err == nil && home != "" && within(work, home) {
		return refuse("the home directory or one of its parents")
	}
	if cwd, err := os.Getwd(); err == nil && within(work, cwd) {
		return refuse("the current directory or one of its parents")
	}
	for _, dir := range []string{c.DataDir, c.AssetsDir} {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil && within(work, abs) {
			return refuse(fmt.Sprintf("where %s lives", dir))
		}
	}
	return nil
}

// within reports whether path is parent itself or somewhere below it.
func within(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
