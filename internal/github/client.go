// Package github reconciles a project's repository reference against the
// GitHub commits API. It exposes a single capability: the most recent commit
// for an owner/repo pair, fetched with a bounded timeout and mapped to the
// service's typed error kinds. No retries are performed here; retry policy
// belongs to callers.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pgm-labs/pgm-backend/internal/apierr"
)

const defaultBaseURL = "https://api.github.com"

// CommitInfo is the normalized result of a successful sync.
type CommitInfo struct {
	Owner        string
	Repo         string
	LastCommitAt time.Time
	SHA          string
	HTMLURL      string
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client bound to the given request timeout. An empty
// baseURL selects the public GitHub API; tests point it at a local server.
// The token is optional and raises the unauthenticated rate limit when set.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LatestCommit fetches the most recent commit for the repository referenced
// by repoURL, ordered by GitHub's own history, requesting exactly one result.
func (c *Client) LatestCommit(ctx context.Context, repoURL string) (*CommitInfo, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=1",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "pgm-backend")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apierr.Timeout("GITHUB_TIMEOUT", "GitHub API request timed out")
		}
		return nil, apierr.Upstream("GITHUB_API_ERROR", "GitHub API request failed")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var commits []struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
		Commit  struct {
			Committer struct {
				Date time.Time `json:"date"`
			} `json:"committer"`
		} `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return nil, apierr.Upstream("GITHUB_API_ERROR", "GitHub API returned an unreadable response")
	}

	if len(commits) == 0 {
		return nil, apierr.Invalid("NO_COMMITS", "Repository has no commits")
	}

	latest := commits[0]
	if latest.Commit.Committer.Date.IsZero() {
		return nil, apierr.Upstream("GITHUB_API_ERROR", "GitHub API response missing commit date")
	}

	return &CommitInfo{
		Owner:        owner,
		Repo:         repo,
		LastCommitAt: latest.Commit.Committer.Date,
		SHA:          latest.SHA,
		HTMLURL:      latest.HTMLURL,
	}, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apierr.Invalid("REPO_NOT_FOUND_OR_PRIVATE", "GitHub repository not found or is private")

	case resp.StatusCode == http.StatusTooManyRequests:
		return apierr.RateLimited("GITHUB_RATE_LIMIT", "GitHub API rate limit exceeded")

	case resp.StatusCode == http.StatusForbidden:
		if resp.Header.Get("X-Ratelimit-Remaining") == "0" {
			return apierr.RateLimited("GITHUB_RATE_LIMIT", "GitHub API rate limit exceeded")
		}
		return apierr.Upstream("GITHUB_API_ERROR", "GitHub API request failed",
			map[string]any{"status": resp.StatusCode})

	// GitHub answers 409 for a repository with an empty history.
	case resp.StatusCode == http.StatusConflict:
		return apierr.Invalid("NO_COMMITS", "Repository has no commits")

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return apierr.Upstream("GITHUB_API_ERROR", "GitHub API request failed",
			map[string]any{"status": resp.StatusCode})
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
