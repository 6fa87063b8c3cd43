package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.github.com"

// NewClient returns a client for the GitHub REST API rooted at baseURL.  An empty token is legal:
// requests then go out anonymously and are subject to GitHub's anonymous rate limits.
func NewClient(baseURL string, token string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.ParseRequestURI(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("github: couldn't parse REST API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("github: REST API URL must be http(s): %s", baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		BaseURI: u,
		Client:  httpClient,
		token:   token,
	}, nil
}

type Client struct {
	// Where the REST API lives, e.g. https://api.github.com
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	token string
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Token is exposed so that asset downloads from GitHub-hosted URLs can reuse the read credential.
func (c *Client) Token() string {
	return c.token
}
