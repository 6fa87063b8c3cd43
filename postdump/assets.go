package postdump

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DownloadError is returned when an asset URL answers with anything but 2xx.
type DownloadError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("postdump: failed to download %s: %s", e.URL, e.Status)
}

// AssetDownloader fetches an image and stores it at a given path, overwriting what's there.
type AssetDownloader struct {
	Client  *http.Client
	Timeout time.Duration

	// Token is only sent to hosts in AuthHosts.  A leading dot matches any subdomain.
	Token     string
	AuthHosts []string
}

// NewAssetDownloader sends token to the API host and GitHub's own content hosts, nowhere else.
func NewAssetDownloader(client *http.Client, token string, apiHost string, timeout time.Duration) *AssetDownloader {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	hosts := []string{"github.com", ".github.com", ".githubusercontent.com"}
	if apiHost != "" {
		hosts = append(hosts, apiHost)
	}
	return &AssetDownloader{
		Client:    client,
		Timeout:   timeout,
		Token:     token,
		AuthHosts: hosts,
	}
}

// Download writes the body at rawURL to destPath, creating parent directories as needed.  It
// returns the number of bytes written.  The whole body is read before the file is touched, so a
// failed transfer never truncates a previously downloaded copy.
func (d *AssetDownloader) Download(ctx context.Context, rawURL string, destPath string) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("postdump: couldn't parse asset URL %s: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return 0, fmt.Errorf("postdump: refusing to download non-http(s) URL %s", rawURL)
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("postdump: couldn't instantiate http request: %w", err)
	}
	req.Header.Set("User-Agent", "issue-posts")
	if d.Token != "" && d.sendsTokenTo(u.Hostname()) {
		req.Header.Set("Authorization", "token "+d.Token)
	}

	response, err := d.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("postdump: couldn't fetch %s: %w", rawURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return 0, &DownloadError{
			URL:        rawURL,
			StatusCode: response.StatusCode,
			Status:     response.Status,
		}
	}

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return 0, fmt.Errorf("postdump: couldn't read body of %s: %w", rawURL, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("postdump: couldn't create directory for %s: %w", destPath, err)
	}
	if err := os.WriteFile(destPath, content, 0644); err != nil {
		return 0, fmt.Errorf("postdump: couldn't write %s: %w", destPath, err)
	}

	return int64(len(content)), nil
}

func (d *AssetDownloader) sendsTokenTo(host string) bool {
	host = strings.ToLower(host)
	for _, h := range d.AuthHosts {
		h = strings.ToLower(h)
		if strings.HasPrefix(h, ".") {
			if strings.HasSuffix(host, h) {
				return true
			}
		} else if host == h {
			return true
		}
	}
	return false
}
