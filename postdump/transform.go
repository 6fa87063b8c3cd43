package postdump

import (
	"context"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/toothbrush/issue-posts/github"
	"golang.org/x/exp/slices"
)

const (
	DefaultPublicPrefix = "/assets/posts"
	DraftLabel          = "draft"
	excerptLength       = 200
)

type CommentSource interface {
	FetchComments(ctx context.Context, repo string, number int) ([]Comment, error)
}

type AssetFetcher interface {
	Download(ctx context.Context, rawURL string, destPath string) (int64, error)
}

// Transformer turns one issue into a Post, mirroring the images it references along the way.
type Transformer struct {
	// Labels that mark an issue as a post.  They don't count as tags.
	PostLabels []string

	// Images land in AssetsRoot/<slug>/ and are served from PublicPrefix/<slug>/.
	AssetsRoot   string
	PublicPrefix string

	// Convert inline <img> tags to Markdown before scanning for images.
	ConvertHTMLImages bool

	Comments CommentSource
	Assets   AssetFetcher

	Logger *log.Logger

	downloadedBytes atomic.Int64
}

// DownloadedBytes is the running total of asset bytes written by this transformer.
func (t *Transformer) DownloadedBytes() int64 {
	return t.downloadedBytes.Load()
}

// Transform builds the Post for issue.  A broken image is logged and left as it was; a failure to
// fetch comments fails the whole issue.
func (t *Transformer) Transform(ctx context.Context, repo string, issue github.Issue) (Post, error) {
	id := issue.Number
	title := issue.Title
	if title == "" {
		title = fmt.Sprintf("Post %d", id)
	}
	slug := PostSlug(issue.Title, id)

	labels := normaliseLabels(issue.Labels)
	tags := []string{}
	for _, l := range labels {
		if !slices.Contains(t.PostLabels, l) {
			tags = append(tags, l)
		}
	}

	original := issue.BodyText()
	refs := findImages(original)
	if t.ConvertHTMLImages {
		htmlRefs, err := findHTMLImages(original)
		if err != nil {
			t.logf("#%d: leaving HTML images alone: %v", id, err)
		} else {
			refs = mergeRefs(refs, htmlRefs)
		}
	}

	assets := t.mirrorImages(ctx, id, slug, distinctURLs(refs))

	published := map[string]string{}
	for _, a := range assets {
		published[a.Source] = a.URL
	}
	body := rewriteImages(original, refs, published)

	comments, err := t.Comments.FetchComments(ctx, repo, id)
	if err != nil {
		return Post{}, fmt.Errorf("postdump: issue #%d: %w", id, err)
	}

	post := Post{
		ID:        id,
		Title:     title,
		Slug:      slug,
		CreatedAt: issue.CreatedAt,
		UpdatedAt: issue.UpdatedAt,
		Body:      body,
		Comments:  comments,
		Labels:    labels,
		Tags:      tags,
		PostType:  PostType,
		Media:     []Media{},
		Assets:    []AssetRef{},
		Excerpt:   excerpt(original),
		Draft:     slices.Contains(labels, DraftLabel),
		Custom:    map[string]any{},
	}
	if post.UpdatedAt == "" {
		post.UpdatedAt = post.CreatedAt
	}
	if issue.User != nil {
		post.Author = Author{
			Login: stringOrNil(issue.User.Login),
			URL:   stringOrNil(issue.User.HTMLURL),
		}
		if issue.User.ID != 0 {
			userID := issue.User.ID
			post.Author.ID = &userID
		}
	}
	if len(tags) > 0 {
		mainCategory := tags[0]
		post.MainCategory = &mainCategory
	}
	for _, a := range assets {
		post.Media = append(post.Media, Media{Type: "image", Filename: a.Filename, URL: a.URL})
		post.Assets = append(post.Assets, AssetRef{Path: a.Path, URL: a.URL})
	}

	return post, nil
}

// mirrorImages downloads urls in order and returns the ones that made it.
func (t *Transformer) mirrorImages(ctx context.Context, id int, slug string, urls []string) []Asset {
	prefix := t.PublicPrefix
	if prefix == "" {
		prefix = DefaultPublicPrefix
	}

	assets := []Asset{}
	taken := map[string]bool{}

	for _, src := range urls {
		filename := uniqueFilename(assetFilename(src), taken)
		taken[filename] = true

		asset := Asset{
			Source:   src,
			Filename: filename,
			Path:     filepath.Join(t.AssetsRoot, slug, filename),
			URL:      path.Join(prefix, slug, filename),
		}

		size, err := t.Assets.Download(ctx, src, asset.Path)
		if err != nil {
			t.logf("WARNING: #%d: asset download failed: %v", id, err)
			continue
		}
		asset.Size = size
		t.downloadedBytes.Add(size)
		t.logf("#%d: saved %s (%s)", id, asset.URL, humanize.Bytes(uint64(size)))

		assets = append(assets, asset)
	}

	return assets
}

func (t *Transformer) logf(format string, a ...any) {
	if t.Logger != nil {
		t.Logger.Printf(format, a...)
	}
}

// normaliseLabels flattens labels to their names, dropping empty ones.
func normaliseLabels(labels []github.Label) []string {
	names := []string{}
	for _, l := range labels {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	return names
}

// excerpt is the first non-blank line of body, cut to 200 characters.
func excerpt(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= excerptLength {
			return line
		}
		return string([]rune(line)[:excerptLength])
	}
	return ""
}
