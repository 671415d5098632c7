// Package github fetches repository contents through the GitHub REST API.
//
// The crawler walks the contents endpoint recursively, downloading each
// file that the caller's filter accepts and that fits under the size
// ceiling. Rate-limit responses are honored by waiting for the advertised
// reset, and transient HTTP failures are retried with backoff.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/codeprimer/codeprimer/pkg/httputil"
)

var repoURLPattern = regexp.MustCompile(`https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// ParseRepoURL extracts owner and repository name from a GitHub URL.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", fmt.Errorf("not a GitHub repository URL: %s", repoURL)
	}
	return m[1], m[2], nil
}

// File is one downloaded repository file.
type File struct {
	Path    string
	Content string
}

// CrawlOptions controls a repository crawl.
type CrawlOptions struct {
	// MaxFileBytes skips files reported larger than this many bytes.
	MaxFileBytes int64

	// ShouldFetch decides per file (by repo-relative path and base name)
	// whether to download it. Nil fetches everything.
	ShouldFetch func(path, name string) bool

	// Ref is the git ref to crawl (branch, tag, SHA). Empty uses the
	// repository's default branch.
	Ref string

	// Logger receives per-file progress at debug level.
	Logger *log.Logger
}

// Client provides access to GitHub repository content.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a content client. Pass an empty token for
// unauthenticated requests (lower rate limits, public repos only).
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.github.com",
	}
}

// NewClientWithBaseURL creates a client against a custom API endpoint.
// Used for GitHub Enterprise and in tests.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Crawl walks the repository tree rooted at the default branch (or
// opts.Ref) and returns every accepted file's content. The returned order
// follows API listing order; callers needing determinism must sort.
func (c *Client) Crawl(ctx context.Context, owner, repo string, opts CrawlOptions) ([]File, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	var files []File
	if err := c.crawlDir(ctx, owner, repo, "", opts, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// contentItem is the subset of the contents API response the crawler needs.
type contentItem struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Type        string `json:"type"` // "file", "dir", "symlink", "submodule"
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

func (c *Client) crawlDir(ctx context.Context, owner, repo, dir string, opts CrawlOptions, files *[]File) error {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, dir)
	if opts.Ref != "" {
		endpoint += "?ref=" + url.QueryEscape(opts.Ref)
	}

	var items []contentItem
	if err := c.getJSON(ctx, endpoint, &items); err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	for _, item := range items {
		switch item.Type {
		case "dir":
			if err := c.crawlDir(ctx, owner, repo, item.Path, opts, files); err != nil {
				return err
			}
		case "file":
			if opts.ShouldFetch != nil && !opts.ShouldFetch(item.Path, item.Name) {
				continue
			}
			if opts.MaxFileBytes > 0 && item.Size > opts.MaxFileBytes {
				opts.Logger.Debug("skipping oversized file", "path", item.Path, "size", item.Size)
				continue
			}
			if item.DownloadURL == "" {
				continue
			}
			content, err := c.download(ctx, item.DownloadURL)
			if err != nil {
				return fmt.Errorf("download %s: %w", item.Path, err)
			}
			opts.Logger.Debug("downloaded file", "path", item.Path, "bytes", len(content))
			*files = append(*files, File{Path: item.Path, Content: content})
		}
	}
	return nil
}

// getJSON issues a GET with retry and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	return httputil.RetryWithBackoff(ctx, func() error {
		body, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		return json.NewDecoder(body).Decode(out)
	})
}

// download fetches a raw file body with retry.
func (c *Client) download(ctx context.Context, url string) (string, error) {
	var content string
	err := httputil.RetryWithBackoff(ctx, func() error {
		body, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err := io.ReadAll(body)
		if err != nil {
			return httputil.Retryable(err)
		}
		content = string(data)
		return nil
	})
	return content, err
}

// get performs one HTTP GET, classifying failures as retryable or not.
// A rate-limited response carries the reset wait as a retry hint.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, httputil.Retryable(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		defer resp.Body.Close()
		wait := rateLimitWait(resp.Header.Get("X-RateLimit-Reset"))
		return nil, httputil.RetryableAfter(fmt.Errorf("rate limited (reset in %s)", wait), wait)
	case resp.StatusCode >= 500:
		defer resp.Body.Close()
		return nil, httputil.Retryable(fmt.Errorf("GitHub API error (%d)", resp.StatusCode))
	default:
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GitHub API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func rateLimitWait(reset string) time.Duration {
	ts, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return time.Minute
	}
	wait := time.Until(time.Unix(ts, 0)) + time.Second
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}
