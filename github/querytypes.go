package github

// IssuesQuery defines the query parameters for:
// https://docs.github.com/en/rest/issues/issues#list-repository-issues
type IssuesQuery struct {
	State  string   `url:"state,omitempty"`        // open, closed or all
	Labels []string `url:"labels,omitempty,comma"` // issues carrying all of these labels

	// We only ever look at the first page.  Anything past PerPage issues is out of scope.
	PerPage int `url:"per_page,omitempty"` // default 30, max 100
	Page    int `url:"page,omitempty"`
}

// CommentsQuery defines the query parameters for:
// https://docs.github.com/en/rest/issues/comments#list-issue-comments
type CommentsQuery struct {
	PerPage int `url:"per_page,omitempty"`
}

// DefaultPageSize is the largest page GitHub will hand out.
const DefaultPageSize = 100
