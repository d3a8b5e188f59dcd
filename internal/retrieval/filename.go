package retrieval

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"github.com/law-makers/scrollgrab/internal/discovery"
)

// DefaultFallbackExt is used when the URL path has no recognised media suffix
const DefaultFallbackExt = "mp4"

var knownExtensions = func() map[string]bool {
	m := make(map[string]bool)
	for _, ext := range discovery.Extensions(discovery.KindAll) {
		m[strings.TrimPrefix(ext, ".")] = true
	}
	return m
}()

// DeriveFilename maps a URL to a stable, filesystem-safe name:
//
//	<prefix>_<sha256(url)[:12]>_<md5(url)[:10]>.<ext>
//
// The name depends only on the URL so a second run finds the same file.
func DeriveFilename(rawURL, prefix, fallbackExt string) string {
	if prefix == "" {
		prefix = "media"
	}
	if fallbackExt == "" {
		fallbackExt = DefaultFallbackExt
	}

	sha := sha256.Sum256([]byte(rawURL))
	sum := md5.Sum([]byte(rawURL))

	return sanitizePrefix(prefix) + "_" +
		hex.EncodeToString(sha[:])[:12] + "_" +
		hex.EncodeToString(sum[:])[:10] + "." +
		extensionOf(rawURL, strings.TrimPrefix(fallbackExt, "."))
}

// extensionOf returns the URL path's media suffix without the dot
func extensionOf(rawURL, fallback string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if knownExtensions[ext] {
		return ext
	}
	return fallback
}

// sanitizePrefix keeps the prefix from introducing path separators
func sanitizePrefix(prefix string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	return r.Replace(strings.TrimSpace(prefix))
}
