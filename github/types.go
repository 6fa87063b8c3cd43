package github

import (
	"encoding/json"
	"fmt"
)

// See https://docs.github.com/en/rest/issues/issues#get-an-issue.  Only the fields we publish are
// decoded.  Timestamps stay as the raw strings GitHub sent, so they round-trip byte-for-byte into
// the post JSON.
type Issue struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	Body      *string `json:"body"`
	State     string  `json:"state"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	User      *User   `json:"user"`
	Labels    []Label `json:"labels"`

	// GitHub's issues endpoint also returns pull requests; those carry this object.
	PullRequest *PullRequestRef `json:"pull_request,omitempty"`
}

// IsPullRequest is true for "issues" that are actually pull requests.
func (i Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// BodyText is the issue body, or "" when the issue has none.
func (i Issue) BodyText() string {
	if i.Body == nil {
		return ""
	}
	return *i.Body
}

type PullRequestRef struct {
	URL     string `json:"url"`
	HTMLURL string `json:"html_url"`
}

type User struct {
	Login   string `json:"login"`
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Label can arrive either as a bare string or as a full label object, depending on who produced the
// payload.  Both decode to the name.
type Label struct {
	Name string `json:"name"`
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		l.Name = name
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("github: label is neither string nor object: %w", err)
	}
	l.Name = obj.Name
	return nil
}

// See https://docs.github.com/en/rest/issues/comments#list-issue-comments
type Comment struct {
	ID        int64   `json:"id"`
	User      *User   `json:"user"`
	Body      *string `json:"body"`
	CreatedAt string  `json:"created_at"`
}
