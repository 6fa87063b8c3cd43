package postdump

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/toothbrush/issue-posts/github"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

type IssueLister interface {
	ListIssues(ctx context.Context, repo string, opts github.IssuesQuery) ([]github.Issue, error)
}

// Pipeline lists the labelled issues of one repository and writes a post file for each.
type Pipeline struct {
	Repo   string
	Labels []string

	Issues      IssueLister
	Transformer *Transformer

	// Posts are written to DataDir/<slug>.json.
	DataDir string

	// CleanDir, if set, is removed once the issue list is in hand, before anything is written.
	CleanDir string

	// Workers > 1 transforms that many issues at a time.
	Workers int

	// Prune removes posts this run didn't produce.  Skipped when any issue failed.
	Prune bool

	Logger *log.Logger

	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

type Summary struct {
	Listed       int
	PullRequests int
	Written      int
	Failed       int
	Pruned       int
	Assets       int
	Bytes        int64

	// Paths of the post files written, sorted.
	Files []string

	// Why each failed issue failed, by issue number.
	Failures map[int]error
}

type issueResult struct {
	post Post
	path string
	err  error
}

// Run does one full pass.  Only failing to list the issues, or to set up the output directories,
// fails the run; a broken issue is logged and counted in the summary.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Failures: map[int]error{}}

	p.logf("Fetching issues from %s labels=%v", p.Repo, p.Labels)
	issues, err := p.Issues.ListIssues(ctx, p.Repo, github.IssuesQuery{
		State:   "open",
		Labels:  p.Labels,
		PerPage: github.DefaultPageSize,
	})
	if err != nil {
		return summary, fmt.Errorf("postdump: couldn't list issues: %w", err)
	}
	summary.Listed = len(issues)
	p.logf("Found %d issues", len(issues))

	if p.CleanDir != "" {
		if err := os.RemoveAll(p.CleanDir); err != nil {
			return summary, fmt.Errorf("postdump: couldn't clean %s: %w", p.CleanDir, err)
		}
	}
	if err := os.MkdirAll(p.DataDir, 0755); err != nil {
		return summary, fmt.Errorf("postdump: couldn't create directory %s: %w", p.DataDir, err)
	}

	posts := []github.Issue{}
	for _, issue := range issues {
		if issue.IsPullRequest() {
			summary.PullRequests++
			continue
		}
		posts = append(posts, issue)
	}

	results := p.transformAll(ctx, posts)

	fresh := map[string]bool{}
	for i, r := range results {
		if r.err != nil {
			summary.Failed++
			summary.Failures[posts[i].Number] = r.err
			p.logf("error processing issue %d: %v", posts[i].Number, r.err)
			continue
		}
		summary.Written++
		summary.Assets += len(r.post.Assets)
		summary.Files = append(summary.Files, r.path)
		fresh[r.post.Slug] = true
	}
	sort.Strings(summary.Files)
	summary.Bytes = p.Transformer.DownloadedBytes()

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("postdump: run interrupted: %w", err)
	}

	if p.Prune {
		if summary.Failed > 0 {
			p.logf("Not pruning: %d issues failed this run", summary.Failed)
		} else {
			pruned, err := p.prune(fresh)
			summary.Pruned = pruned
			if err != nil {
				return summary, fmt.Errorf("postdump: prune failed: %w", err)
			}
		}
	}

	p.logf("Wrote %d posts (%d failed, %d pull requests skipped), %d assets totalling %s",
		summary.Written, summary.Failed, summary.PullRequests, summary.Assets,
		humanize.Bytes(uint64(summary.Bytes)))
	if len(summary.Failures) > 0 {
		failed := maps.Keys(summary.Failures)
		sort.Ints(failed)
		p.logf("Failed issues: %v", failed)
	}

	return summary, nil
}

// transformAll processes issues with at most p.Workers in flight.  results[i] belongs to issues[i]
// whatever order they finish in.
func (p *Pipeline) transformAll(ctx context.Context, issues []github.Issue) []issueResult {
	results := make([]issueResult, len(issues))
	if len(issues) == 0 {
		return results
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	progress := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(p.Progress))
	bar := progress.AddBar(int64(len(issues)),
		mpb.PrependDecorators(
			decor.Name("posts:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
		),
	)

	var mu sync.Mutex
	grp := new(errgroup.Group)
	grp.SetLimit(workers)

	for i, issue := range issues {
		i, issue := i, issue
		grp.Go(func() error {
			defer bar.Increment()

			r := p.processIssue(ctx, issue)

			mu.Lock()
			results[i] = r
			mu.Unlock()

			// per-issue failures are kept in the results, never returned
			return nil
		})
	}
	_ = grp.Wait()

	// make sure the bar completes even if we were cancelled part way, or Wait would block
	bar.SetTotal(-1, true)
	progress.Wait()

	return results
}

func (p *Pipeline) processIssue(ctx context.Context, issue github.Issue) issueResult {
	if err := ctx.Err(); err != nil {
		return issueResult{err: err}
	}

	post, err := p.Transformer.Transform(ctx, p.Repo, issue)
	if err != nil {
		return issueResult{err: err}
	}

	path, err := WritePost(p.DataDir, post)
	if err != nil {
		return issueResult{err: err}
	}
	p.logf("Wrote %s", path)

	return issueResult{post: post, path: path}
}

func (p *Pipeline) logf(format string, a ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, a...)
	}
}
