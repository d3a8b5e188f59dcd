package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// embeddedBlobPatterns locate JSON state blobs that SPAs ship inline
var embeddedBlobPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<script[^>]*id=["']__NEXT_DATA__["'][^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*({.*?});`),
}

var rawURLPattern = regexp.MustCompile(`https?://[^\s"'<>\\]+`)

// HTMLSource serializes the current document
type HTMLSource interface {
	HTML(ctx context.Context) (string, error)
}

// SnapshotMediaElements parses the media elements named tag out of the
// page's current DOM. Backends use it so every engine reads the same
// attributes.
func SnapshotMediaElements(ctx context.Context, page HTMLSource, tag string) ([]MediaElement, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return ParseMediaElements(html, tag)
}

// ParseMediaElements finds every element named tag in a rendered HTML
// snapshot and returns its src plus nested <source> alternatives.
func ParseMediaElements(html string, tag string) ([]MediaElement, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var elements []MediaElement
	doc.Find(tag).Each(func(i int, s *goquery.Selection) {
		el := MediaElement{Tag: tag}
		if src, exists := s.Attr("src"); exists {
			el.Src = strings.TrimSpace(src)
		}
		if srcset, exists := s.Attr("srcset"); exists {
			el.Sources = append(el.Sources, parseSrcset(srcset)...)
		}

		s.Find("source").Each(func(j int, src *goquery.Selection) {
			if v, exists := src.Attr("src"); exists && strings.TrimSpace(v) != "" {
				el.Sources = append(el.Sources, strings.TrimSpace(v))
			}
			if srcset, exists := src.Attr("srcset"); exists {
				el.Sources = append(el.Sources, parseSrcset(srcset)...)
			}
		})

		elements = append(elements, el)
	})

	return elements, nil
}

// References returns the element's direct and alternative references
func (m MediaElement) References() []string {
	refs := make([]string, 0, 1+len(m.Sources))
	if m.Src != "" {
		refs = append(refs, m.Src)
	}
	return append(refs, m.Sources...)
}

// ResolveReference resolves a possibly-relative reference against base.
// data:, blob: and javascript: references resolve to "".
func ResolveReference(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:") || strings.HasPrefix(lower, "javascript:") {
		return ""
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := baseURL.ResolveReference(rel)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// parseSrcset parses a srcset attribute and returns its URLs
func parseSrcset(srcset string) []string {
	var urls []string
	for _, part := range strings.Split(srcset, ",") {
		// Each part is like "image.jpg 2x" or "image.jpg 1024w"
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) > 0 {
			urls = append(urls, tokens[0])
		}
	}
	return urls
}

// ExtractEmbeddedURLs looks for media URLs inside inline JSON state blobs
// (Next.js data, JSON-LD, initial state assignments).
func ExtractEmbeddedURLs(html string, sigs SignatureSet) []string {
	var urls []string

	for _, re := range embeddedBlobPatterns {
		for _, match := range re.FindAllStringSubmatch(html, -1) {
			if len(match) < 2 {
				continue
			}
			urls = append(urls, urlsFromBlob(match[1], sigs)...)
		}
	}

	return urls
}

// urlsFromBlob extracts media URLs from one state blob. Strict JSON is
// decoded directly, JS object literals go through a sandboxed VM, and
// anything else falls back to pattern matching.
func urlsFromBlob(blob string, sigs SignatureSet) []string {
	var urls []string
	collect := func(s string) {
		if isFetchable(s) && sigs.MatchURL(s) {
			urls = append(urls, s)
		}
	}

	var data interface{}
	if err := json.Unmarshal([]byte(blob), &data); err == nil {
		walkJSON(data, collect)
		return urls
	}
	if data, err := evaluateLiteral(blob); err == nil && data != nil {
		walkJSON(data, collect)
		return urls
	}

	for _, candidate := range rawURLPattern.FindAllString(blob, -1) {
		if sigs.MatchURL(candidate) {
			urls = append(urls, candidate)
		}
	}
	return urls
}

// walkJSON calls fn for every string value in a decoded JSON document
func walkJSON(data interface{}, fn func(string)) {
	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			walkJSON(value, fn)
		}
	case []interface{}:
		for _, item := range v {
			walkJSON(item, fn)
		}
	case string:
		fn(v)
	}
}
