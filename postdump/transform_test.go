package postdump

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/toothbrush/issue-posts/github"
)

type stubComments struct {
	mu       sync.Mutex
	comments map[int][]Comment
	failing  map[int]bool
	calls    int
}

func (s *stubComments) FetchComments(ctx context.Context, repo string, number int) ([]Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failing[number] {
		return nil, &github.APIError{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"}
	}
	if c, ok := s.comments[number]; ok {
		return c, nil
	}
	return []Comment{}, nil
}

// imageServer serves /img/<name> for the names in files and 404s everything else.
func imageServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[strings.TrimPrefix(r.URL.Path, "/img/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestTransformer(t *testing.T, srv *httptest.Server, comments CommentSource) *Transformer {
	t.Helper()
	return &Transformer{
		PostLabels: []string{"POST", "isPost"},
		AssetsRoot: filepath.Join(t.TempDir(), "assets"),
		Comments:   comments,
		Assets:     NewAssetDownloader(srv.Client(), "", "", 5*time.Second),
	}
}

func strPtr(s string) *string { return &s }

func TestTransform(t *testing.T) {
	srv := imageServer(t, map[string]string{"cat.png": "CATDATA"})
	comments := &stubComments{comments: map[int][]Comment{
		5: {{Author: strPtr("bob"), Body: "Nice", CreatedAt: "2024-01-03T00:00:00Z"}},
	}}
	tr := newTestTransformer(t, srv, comments)

	cat := srv.URL + "/img/cat.png"
	missing := srv.URL + "/img/missing.png"
	body := fmt.Sprintf("\n\nIntro line\n\n![c](%s)\n![m](%s)\n![c again](%s)", cat, missing, cat)

	issue := github.Issue{
		Number:    5,
		Title:     "My First Post",
		Body:      &body,
		CreatedAt: "2024-01-01T00:00:00Z",
		UpdatedAt: "2024-01-02T00:00:00Z",
		User:      &github.User{Login: "alice", ID: 42, HTMLURL: "https://github.com/alice"},
		Labels:    []github.Label{{Name: "POST"}, {Name: "golang"}, {Name: "draft"}},
	}

	post, err := tr.Transform(context.Background(), "alice/blog", issue)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if post.Slug != "my-first-post-5" || post.Title != "My First Post" || post.ID != 5 {
		t.Errorf("identity = %d %q %q", post.ID, post.Title, post.Slug)
	}

	local := "/assets/posts/my-first-post-5/cat.png"
	wantBody := fmt.Sprintf("\n\nIntro line\n\n![c](%s)\n![m](%s)\n![c again](%s)", local, missing, local)
	if post.Body != wantBody {
		t.Errorf("body = %q\nwant   %q", post.Body, wantBody)
	}

	wantAssets := []AssetRef{{Path: filepath.Join(tr.AssetsRoot, "my-first-post-5", "cat.png"), URL: local}}
	if !reflect.DeepEqual(post.Assets, wantAssets) {
		t.Errorf("assets = %+v", post.Assets)
	}
	if !reflect.DeepEqual(post.Media, []Media{{Type: "image", Filename: "cat.png", URL: local}}) {
		t.Errorf("media = %+v", post.Media)
	}
	content, err := os.ReadFile(wantAssets[0].Path)
	if err != nil || string(content) != "CATDATA" {
		t.Errorf("asset on disk = %q, %v", content, err)
	}
	if tr.DownloadedBytes() != int64(len("CATDATA")) {
		t.Errorf("downloaded %d bytes", tr.DownloadedBytes())
	}

	if !reflect.DeepEqual(post.Labels, []string{"POST", "golang", "draft"}) {
		t.Errorf("labels = %v", post.Labels)
	}
	if !reflect.DeepEqual(post.Tags, []string{"golang", "draft"}) {
		t.Errorf("tags = %v", post.Tags)
	}
	if post.MainCategory == nil || *post.MainCategory != "golang" {
		t.Errorf("main_category = %v", post.MainCategory)
	}
	if !post.Draft {
		t.Errorf("draft label not honoured")
	}
	if post.Excerpt != "Intro line" {
		t.Errorf("excerpt = %q", post.Excerpt)
	}
	if post.PostType != "article" {
		t.Errorf("post_type = %q", post.PostType)
	}
	if post.Author.Login == nil || *post.Author.Login != "alice" || post.Author.ID == nil || *post.Author.ID != 42 {
		t.Errorf("author = %+v", post.Author)
	}
	if len(post.Comments) != 1 || *post.Comments[0].Author != "bob" {
		t.Errorf("comments = %+v", post.Comments)
	}
}

func TestTransformMinimalIssue(t *testing.T) {
	srv := imageServer(t, nil)
	tr := newTestTransformer(t, srv, &stubComments{})

	post, err := tr.Transform(context.Background(), "alice/blog", github.Issue{
		Number:    9,
		CreatedAt: "2024-05-01T00:00:00Z",
		Labels:    []github.Label{{Name: "isPost"}, {Name: ""}},
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if post.Title != "Post 9" || post.Slug != "post-9" {
		t.Errorf("title/slug = %q %q", post.Title, post.Slug)
	}
	if post.UpdatedAt != post.CreatedAt {
		t.Errorf("updated_at = %q", post.UpdatedAt)
	}
	if post.Body != "" || post.Excerpt != "" {
		t.Errorf("body/excerpt = %q %q", post.Body, post.Excerpt)
	}
	if post.Author.Login != nil || post.Author.ID != nil || post.Author.URL != nil {
		t.Errorf("author should be all null, got %+v", post.Author)
	}
	if post.MainCategory != nil || len(post.Tags) != 0 || post.Draft {
		t.Errorf("classification = %v %v %v", post.MainCategory, post.Tags, post.Draft)
	}
	if !reflect.DeepEqual(post.Labels, []string{"isPost"}) {
		t.Errorf("labels = %v", post.Labels)
	}
}

func TestTransformFailsWhenCommentsFail(t *testing.T) {
	srv := imageServer(t, nil)
	tr := newTestTransformer(t, srv, &stubComments{failing: map[int]bool{3: true}})

	_, err := tr.Transform(context.Background(), "alice/blog", github.Issue{Number: 3, Title: "x"})
	var apiErr *github.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected the APIError to surface, got %v", err)
	}
}

func TestTransformConvertsHTMLImagesWhenAsked(t *testing.T) {
	srv := imageServer(t, map[string]string{"shot": "PNG"})
	tr := newTestTransformer(t, srv, &stubComments{})
	body := fmt.Sprintf("<img alt=\"shot\" src=\"%s/img/shot\">", srv.URL)
	issue := github.Issue{Number: 1, Title: "Pics", Body: &body}

	post, err := tr.Transform(context.Background(), "alice/blog", issue)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(post.Assets) != 0 || post.Body != body {
		t.Errorf("HTML images touched while conversion is off: %q", post.Body)
	}

	tr.ConvertHTMLImages = true
	post, err = tr.Transform(context.Background(), "alice/blog", issue)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(post.Assets) != 1 || !strings.Contains(post.Body, "](/assets/posts/pics-1/shot)") {
		t.Errorf("assets = %+v body = %q", post.Assets, post.Body)
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("é", 250)
	tests := []struct {
		name, body, want string
	}{
		{"first line", "one\ntwo", "one"},
		{"skips blank lines", "\n   \n\tthird", "\tthird"},
		{"blank only", " \n\n ", ""},
		{"empty", "", ""},
		{"cut by characters", long, strings.Repeat("é", 200)},
		{"exactly 200", strings.Repeat("a", 200), strings.Repeat("a", 200)},
	}
	for _, tt := range tests {
		if got := excerpt(tt.body); got != tt.want {
			t.Errorf("%s: excerpt = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTransformKeepsFailedImageWhoseURLExtendsAMirroredOne(t *testing.T) {
	srv := imageServer(t, map[string]string{"a.png": "A"})
	tr := newTestTransformer(t, srv, &stubComments{})

	missing := srv.URL + "/img/a.png.orig"
	body := fmt.Sprintf("![a](%s/img/a.png) ![b](%s)", srv.URL, missing)

	post, err := tr.Transform(context.Background(), "alice/blog", github.Issue{Number: 1, Title: "T", Body: &body})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	want := fmt.Sprintf("![a](/assets/posts/t-1/a.png) ![b](%s)", missing)
	if post.Body != want {
		t.Errorf("body = %q\nwant   %q", post.Body, want)
	}
	if len(post.Assets) != 1 {
		t.Errorf("assets = %+v", post.Assets)
	}
}

func TestTransformDraftNeedsExactLabel(t *testing.T) {
	srv := imageServer(t, nil)
	tr := newTestTransformer(t, srv, &stubComments{})

	tests := []struct {
		labels []string
		want   bool
	}{
		{[]string{"Draft"}, false},
		{[]string{"DRAFT"}, false},
		{[]string{"drafts"}, false},
		{[]string{"x", "draft"}, true},
		{nil, false},
	}

	for _, tt := range tests {
		issue := github.Issue{Number: 1, Title: "t"}
		for _, l := range tt.labels {
			issue.Labels = append(issue.Labels, github.Label{Name: l})
		}
		post, err := tr.Transform(context.Background(), "alice/blog", issue)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		if post.Draft != tt.want {
			t.Errorf("labels %v: draft = %v, want %v", tt.labels, post.Draft, tt.want)
		}
	}
}

func TestTransformKeepsHTMLTagOfFailedImage(t *testing.T) {
	srv := imageServer(t, map[string]string{"ok": "PNG"})
	tr := newTestTransformer(t, srv, &stubComments{})
	tr.ConvertHTMLImages = true

	broken := fmt.Sprintf("<img alt=\"gone\" src=\"%s/img/gone\">", srv.URL)
	body := fmt.Sprintf("<img alt=\"ok\" src=\"%s/img/ok\">\n%s", srv.URL, broken)

	post, err := tr.Transform(context.Background(), "alice/blog", github.Issue{Number: 2, Title: "Mixed", Body: &body})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	want := "![ok](/assets/posts/mixed-2/ok)\n" + broken
	if post.Body != want {
		t.Errorf("body = %q\nwant   %q", post.Body, want)
	}
}
