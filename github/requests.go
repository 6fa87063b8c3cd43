package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const userAgent = "issue-posts"

// ListIssues fetches the first page of issues matching opts.  Pull requests are included, since
// GitHub returns them from this endpoint; the caller filters them out.
func (c *Client) ListIssues(ctx context.Context, repo string, opts IssuesQuery) ([]Issue, error) {
	ep, err := c.listIssuesEndpoint(repo, opts)
	if err != nil {
		return nil, fmt.Errorf("github: couldn't get issues endpoint: %w", err)
	}

	body, err := c.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("github: couldn't list issues in %s: %w", repo, err)
	}

	var issues []Issue
	if err := json.Unmarshal(body, &issues); err != nil {
		return nil, fmt.Errorf("github: couldn't parse json response: %w", err)
	}

	return issues, nil
}

// GetComments returns the comments on one issue, in creation order.
func (c *Client) GetComments(ctx context.Context, repo string, number int) ([]Comment, error) {
	ep, err := c.issueCommentsEndpoint(repo, number, CommentsQuery{PerPage: DefaultPageSize})
	if err != nil {
		return nil, fmt.Errorf("github: couldn't get comments endpoint: %w", err)
	}

	body, err := c.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("github: couldn't fetch comments for #%d: %w", number, err)
	}

	var comments []Comment
	if err := json.Unmarshal(body, &comments); err != nil {
		return nil, fmt.Errorf("github: couldn't parse json response: %w", err)
	}

	return comments, nil
}

// request performs one authenticated GET and returns the body of a 2xx response.
func (c *Client) request(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("github: couldn't instantiate http request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	// if there's no token, go in anonymously
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	response, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: couldn't perform http request: %w", err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		response.Body.Close()
		return nil, fmt.Errorf("github: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("github: couldn't close response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &APIError{
			URL:        u.String(),
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}
