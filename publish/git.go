package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Where the site generator looks, relative to the root of both the output dir and the hosting repo.
var SiteDirs = []string{
	filepath.Join("src", "_data", "posts"),
	filepath.Join("src", "assets", "posts"),
}

// GitPublisher clones the hosting repository, copies the generated tree over it, then commits
// and pushes.  It shells out to git.
type GitPublisher struct {
	// owner/name on Host, e.g. github.com
	Repo  string
	Host  string
	Token string

	Branch        string
	CommitMessage string
	// "Name <email>"
	CommitAuthor string

	// RemoteURL overrides the URL derived from Host/Repo/Token, e.g. a local path in tests.
	RemoteURL string

	// Scratch space for the clone; os.TempDir() if empty.
	TempDir string

	GitBinary string
	Logger    *log.Logger
}

func (g *GitPublisher) remote() (string, error) {
	if g.RemoteURL != "" {
		return g.RemoteURL, nil
	}
	if g.Repo == "" {
		return "", fmt.Errorf("publish: no hosting repository configured")
	}
	host := g.Host
	if host == "" {
		host = "github.com"
	}
	u := &url.URL{
		Scheme: "https",
		Host:   host,
		Path:   "/" + g.Repo + ".git",
	}
	if g.Token != "" {
		u.User = url.UserPassword("x-access-token", g.Token)
	}
	return u.String(), nil
}

// Publish returns the commit that's on the remote branch afterwards.  Nothing changed means
// nothing gets committed or pushed.
func (g *GitPublisher) Publish(ctx context.Context, localOutputDir string) (string, error) {
	remote, err := g.remote()
	if err != nil {
		return "", &Error{Step: "configure", Err: err}
	}

	branch := g.Branch
	if branch == "" {
		branch = "main"
	}

	cloneDir, err := os.MkdirTemp(g.TempDir, "hosting-repo-")
	if err != nil {
		return "", &Error{Step: "clone", Err: err}
	}
	defer os.RemoveAll(cloneDir)

	g.logf("Cloning hosting repo %s", g.Repo)
	if _, err := g.git(ctx, "", "clone", "--depth=1", "--branch", branch, remote, cloneDir); err != nil {
		return "", g.fail("clone", err)
	}

	for _, dir := range SiteDirs {
		src := filepath.Join(localOutputDir, dir)
		dst := filepath.Join(cloneDir, dir)
		if err := copyTree(src, dst); err != nil {
			return "", g.fail("copy", err)
		}
	}

	// the copy above is the only thing that touched the clone
	if _, err := g.git(ctx, cloneDir, "add", "--all"); err != nil {
		return "", g.fail("add", err)
	}

	status, err := g.git(ctx, cloneDir, "status", "--porcelain")
	if err != nil {
		return "", g.fail("status", err)
	}

	if strings.TrimSpace(status) == "" {
		g.logf("Hosting repo already up to date")
	} else {
		commitArgs := []string{"commit", "-m", g.commitMessage()}
		if g.CommitAuthor != "" {
			commitArgs = append(commitArgs, "--author", g.CommitAuthor)
		}
		if _, err := g.git(ctx, cloneDir, commitArgs...); err != nil {
			return "", g.fail("commit", err)
		}
		if _, err := g.git(ctx, cloneDir, "push", "origin", "HEAD:"+branch); err != nil {
			return "", g.fail("push", err)
		}
		g.logf("Pushed generated content to hosting repo")
	}

	ref, err := g.git(ctx, cloneDir, "rev-parse", "HEAD")
	if err != nil {
		return "", g.fail("rev-parse", err)
	}
	return strings.TrimSpace(ref), nil
}

func (g *GitPublisher) commitMessage() string {
	if g.CommitMessage == "" {
		return "chore: update generated posts from content repo"
	}
	return g.CommitMessage
}

func (g *GitPublisher) fail(step string, err error) error {
	return &Error{Step: step, Err: err, secrets: []string{g.Token}}
}

// git runs one git command and returns its stdout.  A committer identity is supplied through the
// environment so commits work on CI machines with no git config.
func (g *GitPublisher) git(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.GitBinary
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), g.identityEnv()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (g *GitPublisher) identityEnv() []string {
	name, email := "issue-posts", "issue-posts@users.noreply.github.com"
	if g.CommitAuthor != "" {
		if n, e, ok := strings.Cut(g.CommitAuthor, "<"); ok {
			name = strings.TrimSpace(n)
			email = strings.TrimSuffix(strings.TrimSpace(e), ">")
		}
	}
	return []string{
		"GIT_TERMINAL_PROMPT=0",
		"GIT_COMMITTER_NAME=" + name,
		"GIT_COMMITTER_EMAIL=" + email,
		"GIT_AUTHOR_NAME=" + name,
		"GIT_AUTHOR_EMAIL=" + email,
	}
}

func (g *GitPublisher) logf(format string, a ...any) {
	if g.Logger != nil {
		g.Logger.Printf(format, a...)
	}
}

// copyTree copies the regular files under src into dst, overwriting files that exist.  A missing
// src is not an error: there's simply nothing to copy.
func copyTree(src, dst string) error {
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dst, 0755)
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
