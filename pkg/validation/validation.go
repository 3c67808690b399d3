// Package validation provides input validation for identifiers that end up
// in filesystem paths or outbound URLs.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Object ids are generated by the metadata store as lowercase UUIDs.
var objectIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// MaxURLLength bounds manifest download URLs.
const MaxURLLength = 2048

// ValidateObjectID rejects anything that is not a lowercase UUID, which
// also rules out path traversal through blob keys.
func ValidateObjectID(id string) error {
	if id == "" {
		return fmt.Errorf("object id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("object id contains path characters")
	}
	if !objectIDRegex.MatchString(id) {
		return fmt.Errorf("invalid object id format: expected a lowercase UUID")
	}
	return nil
}

// ValidateDownloadURL checks that raw is an absolute http(s) URL.
func ValidateDownloadURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	if len(raw) > MaxURLLength {
		return fmt.Errorf("url too long: %d chars (max %d)", len(raw), MaxURLLength)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}
