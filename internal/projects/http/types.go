package http

import (
	"regexp"
	"strings"
)

type createRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	RepoURL     string `json:"repoUrl" binding:"required"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	RepoURL     *string `json:"repoUrl"`
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// sanitize strips control characters, neutralizes angle brackets and trims
// surrounding whitespace, mirroring what is applied to every inbound string.
func sanitize(value string) string {
	value = controlChars.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, "<", "&lt;")
	value = strings.ReplaceAll(value, ">", "&gt;")
	return strings.TrimSpace(value)
}

func sanitizePtr(value *string) *string {
	if value == nil {
		return nil
	}
	clean := sanitize(*value)
	return &clean
}
