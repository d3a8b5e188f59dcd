// Package urlutil validates the URLs handed to scrollgrab by the user.
package urlutil

import (
	"fmt"
	"net/url"
)

// ValidateURL checks that urlStr is an absolute http(s) URL with a host
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// Partition splits urls into those that pass ValidateURL and those that do
// not, keeping input order in both.
func Partition(urls []string) (valid, rejected []string) {
	for _, u := range urls {
		if ValidateURL(u) == nil {
			valid = append(valid, u)
		} else {
			rejected = append(rejected, u)
		}
	}
	return valid, rejected
}
