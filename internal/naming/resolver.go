// Package naming derives stable destination object names from signed
// source URLs.
package naming

import (
	"fmt"
	"net/url"
	"strings"
)

const videoSuffix = ".mp4"

// Resolve derives a destination object name from a source URL.
//
// The query string carries only access-signature data and is discarded.
// When the decoded path has at least four segments, the two identifier
// segments ahead of the file name are joined with an underscore to form
// the base name; shorter paths fall back to the last segment. The result
// always carries a .mp4 suffix.
//
// Resolve is pure: same URL in, same name out.
func Resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}

	// u.Path is already percent-decoded.
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "", fmt.Errorf("source url has no path: %s", rawURL)
	}

	segments := strings.Split(path, "/")

	var base string
	if len(segments) >= 4 {
		base = segments[len(segments)-3] + "_" + segments[len(segments)-2]
	} else {
		base = segments[len(segments)-1]
	}

	if !strings.HasSuffix(base, videoSuffix) {
		base += videoSuffix
	}

	return base, nil
}
