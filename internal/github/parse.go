package github

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pgm-labs/pgm-backend/internal/apierr"
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ParseRepoURL validates a repository reference and extracts its owner and
// repo segments. Only http(s) URLs on github.com (or www.github.com) with
// exactly a two-segment path are accepted; a trailing ".git" on the repo
// segment is stripped. Rejection happens before any network call.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, parseErr := url.Parse(repoURL)
	if parseErr != nil || u.Host == "" {
		return "", "", apierr.Invalid("INVALID_REPO_URL", "Invalid GitHub repository URL")
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return "", "", apierr.Invalid("INVALID_REPO_URL", "Repository URL must use HTTP or HTTPS")
	}

	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return "", "", apierr.Invalid("UNSUPPORTED_REPO_PROVIDER", "Only github.com repositories are supported")
	}

	path := strings.Trim(u.Path, "/")
	if strings.HasSuffix(strings.ToLower(path), ".git") {
		path = path[:len(path)-len(".git")]
	}
	segments := strings.Split(path, "/")
	if len(segments) != 2 {
		return "", "", apierr.Invalid("INVALID_REPO_URL",
			"GitHub URL must be in the format https://github.com/{owner}/{repo}")
	}

	owner, repo = segments[0], segments[1]
	if !segmentPattern.MatchString(owner) || !segmentPattern.MatchString(repo) {
		return "", "", apierr.Invalid("INVALID_REPO_URL",
			"GitHub repository owner or name contains invalid characters")
	}

	return owner, repo, nil
}
