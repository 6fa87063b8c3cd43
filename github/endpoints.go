package github

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// listIssuesEndpoint returns the endpoint to list a repository's issues:
// https://docs.github.com/en/rest/issues/issues#list-repository-issues
func (c *Client) listIssuesEndpoint(repo string, opts IssuesQuery) (*url.URL, error) {
	if err := validateRepo(repo); err != nil {
		return nil, err
	}

	ep, err := c.resolveEndpoint(fmt.Sprintf("/repos/%s/issues", repo))
	if err != nil {
		return nil, fmt.Errorf("github: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("github: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// issueCommentsEndpoint returns the endpoint to list the comments on one issue:
// https://docs.github.com/en/rest/issues/comments#list-issue-comments
func (c *Client) issueCommentsEndpoint(repo string, number int, opts CommentsQuery) (*url.URL, error) {
	if err := validateRepo(repo); err != nil {
		return nil, err
	}
	if number < 1 {
		return nil, fmt.Errorf("github: please provide an issue number to fetch comments")
	}

	ep, err := c.resolveEndpoint(fmt.Sprintf("/repos/%s/issues/%d/comments", repo, number))
	if err != nil {
		return nil, fmt.Errorf("github: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("github: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.  The base
// may carry a path prefix (GitHub Enterprise serves the API under /api/v3), so we append rather
// than resolve against the root.
func (c *Client) resolveEndpoint(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimRight(c.BaseURI.Path, "/") + endpoint)
	if err != nil {
		return nil, fmt.Errorf("github: failed to parse endpoint ref: %w", err)
	}

	return c.BaseURI.ResolveReference(ref), nil
}

func validateRepo(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("github: repository must look like owner/name, got '%s'", repo)
	}
	return nil
}
