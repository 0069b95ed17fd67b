package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PagePlaceholder marks where the page number goes in a search URL template
const PagePlaceholder = "{page}"

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// PageURL returns the search URL for the given 1-based page number.
// A {page} placeholder is substituted when present; otherwise the page
// query parameter is set, replacing any existing value.
func PageURL(template string, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("page must be >= 1, got %d", page)
	}
	n := strconv.Itoa(page)
	if strings.Contains(template, PagePlaceholder) {
		return strings.ReplaceAll(template, PagePlaceholder, n), nil
	}

	u, err := url.Parse(template)
	if err != nil {
		return "", fmt.Errorf("invalid search URL: %w", err)
	}
	q := u.Query()
	q.Set("page", n)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
