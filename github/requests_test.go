package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, token, srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestListIssuesQueryAndHeaders(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, "s3cret", func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"number":3,"title":"Hello","body":null,"labels":["POST",{"name":"go"}],"created_at":"2024-01-02T03:04:05Z"},
			{"number":4,"title":"PR","pull_request":{"url":"x"}}]`))
	})

	issues, err := c.ListIssues(context.Background(), "alice/blog", IssuesQuery{
		State:   "open",
		Labels:  []string{"POST", "isPost"},
		PerPage: DefaultPageSize,
	})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}

	if got.URL.Path != "/repos/alice/blog/issues" {
		t.Errorf("path = %q", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("state") != "open" || q.Get("labels") != "POST,isPost" || q.Get("per_page") != "100" {
		t.Errorf("query = %q", got.URL.RawQuery)
	}
	if h := got.Header.Get("Authorization"); h != "token s3cret" {
		t.Errorf("Authorization = %q", h)
	}
	if h := got.Header.Get("Accept"); h != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", h)
	}
	if h := got.Header.Get("User-Agent"); h == "" {
		t.Errorf("User-Agent not set")
	}

	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	if issues[0].BodyText() != "" {
		t.Errorf("null body should read as empty, got %q", issues[0].BodyText())
	}
	if len(issues[0].Labels) != 2 || issues[0].Labels[0].Name != "POST" || issues[0].Labels[1].Name != "go" {
		t.Errorf("labels = %+v", issues[0].Labels)
	}
	if issues[0].IsPullRequest() || !issues[1].IsPullRequest() {
		t.Errorf("pull request detection is wrong")
	}
}

func TestAnonymousRequestsCarryNoAuthorization(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("anonymous request sent Authorization header")
		}
		w.Write([]byte(`[]`))
	})
	if c.Authenticated() {
		t.Errorf("client without token claims to be authenticated")
	}

	if _, err := c.GetComments(context.Background(), "alice/blog", 1); err != nil {
		t.Fatalf("GetComments: %v", err)
	}
}

func TestGetCommentsPath(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/alice/blog/issues/7/comments" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id":1,"user":{"login":"bob"},"body":"first","created_at":"2024-01-01T00:00:00Z"},
			{"id":2,"user":null,"body":null,"created_at":"2024-01-02T00:00:00Z"}]`))
	})

	comments, err := c.GetComments(context.Background(), "alice/blog", 7)
	if err != nil {
		t.Fatalf("GetComments: %v", err)
	}
	if len(comments) != 2 || comments[0].User.Login != "bob" || comments[1].User != nil || comments[1].Body != nil {
		t.Errorf("comments = %+v", comments)
	}
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	c := newTestClient(t, "bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	})

	_, err := c.ListIssues(context.Background(), "alice/blog", IssuesQuery{State: "open"})
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "Bad credentials") || !strings.Contains(err.Error(), "401") {
		t.Errorf("error message %q lacks status or body", err)
	}
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("401 should match ErrAuthentication")
	}
}

func TestNotFoundIsNotAuthentication(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.GetComments(context.Background(), "alice/blog", 2)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected a 404 APIError, got %v", err)
	}
	if errors.Is(err, ErrAuthentication) {
		t.Errorf("404 must not match ErrAuthentication")
	}
}

func TestEnterpriseBasePathIsKept(t *testing.T) {
	c, err := NewClient("https://ghe.example.com/api/v3/", "", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ep, err := c.listIssuesEndpoint("alice/blog", IssuesQuery{State: "open"})
	if err != nil {
		t.Fatalf("listIssuesEndpoint: %v", err)
	}
	if want := "https://ghe.example.com/api/v3/repos/alice/blog/issues?state=open"; ep.String() != want {
		t.Errorf("endpoint = %s, want %s", ep, want)
	}
}

func TestBadInputs(t *testing.T) {
	if _, err := NewClient("ftp://example.com", "", nil); err == nil {
		t.Errorf("ftp base URL accepted")
	}

	c, _ := NewClient("", "", nil)
	for _, repo := range []string{"", "alice", "/blog", "alice/", "a/b/c"} {
		if _, err := c.ListIssues(context.Background(), repo, IssuesQuery{}); err == nil {
			t.Errorf("repo %q accepted", repo)
		}
	}
	if _, err := c.GetComments(context.Background(), "alice/blog", 0); err == nil {
		t.Errorf("issue number 0 accepted")
	}
}
