package discovery

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Kind selects which family of media the pipeline looks for
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindAll   Kind = "all"
)

var (
	videoExtensions = []string{".mp4", ".webm", ".mov", ".m3u8", ".mkv", ".m4v"}
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}
	audioExtensions = []string{".mp3", ".wav", ".ogg", ".m4a", ".aac", ".flac"}
)

// ParseKind converts a user-provided string into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "vid", "":
		return KindVideo, nil
	case "image", "img":
		return KindImage, nil
	case "audio":
		return KindAudio, nil
	case "all":
		return KindAll, nil
	}
	return "", fmt.Errorf("invalid media kind: %s (must be video, image, audio, or all)", s)
}

// Extensions returns the known path suffixes for kind, with leading dots
func Extensions(kind Kind) []string {
	switch kind {
	case KindImage:
		return imageExtensions
	case KindAudio:
		return audioExtensions
	case KindAll:
		all := make([]string, 0, len(videoExtensions)+len(imageExtensions)+len(audioExtensions))
		all = append(all, videoExtensions...)
		all = append(all, imageExtensions...)
		return append(all, audioExtensions...)
	default:
		return videoExtensions
	}
}

// Tags returns the DOM element names scanned for kind
func Tags(kind Kind) []string {
	switch kind {
	case KindImage:
		return []string{"img"}
	case KindAudio:
		return []string{"audio"}
	case KindAll:
		return []string{"video", "img", "audio"}
	default:
		return []string{"video"}
	}
}

// SignatureSet decides whether an observed response is a media asset
type SignatureSet struct {
	Suffixes     []string
	ContentTypes []string
}

// SignaturesFor builds the signature set for kind
func SignaturesFor(kind Kind) SignatureSet {
	var types []string
	switch kind {
	case KindImage:
		types = []string{"image/"}
	case KindAudio:
		types = []string{"audio/"}
	case KindAll:
		types = []string{"video/", "image/", "audio/", "application/vnd.apple.mpegurl"}
	default:
		types = []string{"video/", "application/vnd.apple.mpegurl"}
	}
	return SignatureSet{
		Suffixes:     Extensions(kind),
		ContentTypes: types,
	}
}

// MatchURL reports whether the URL's path ends in a known media suffix
func (s SignatureSet) MatchURL(rawURL string) bool {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, suffix := range s.Suffixes {
		if ext == suffix {
			return true
		}
	}
	return false
}

// MatchContentType reports whether a declared content type is a media type
func (s SignatureSet) MatchContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return false
	}
	for _, prefix := range s.ContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// Match reports whether a response is a media asset
func (s SignatureSet) Match(r Response) bool {
	if !isFetchable(r.URL) {
		return false
	}
	return s.MatchURL(r.URL) || s.MatchContentType(r.ContentType)
}

// isFetchable rejects references that cannot be downloaded over HTTP
func isFetchable(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}
