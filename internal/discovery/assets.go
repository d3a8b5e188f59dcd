// Package discovery drives a rendered page through repeated extend-and-measure
// cycles and harvests media asset URLs from both the DOM and the page's
// network traffic.
package discovery

import "sync"

// AssetSet is a deduplicating collection of discovered asset URLs.
// It is safe for concurrent use; the response listener and the DOM scan
// insert into the same set.
type AssetSet struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewAssetSet creates an empty set
func NewAssetSet() *AssetSet {
	return &AssetSet{
		seen: make(map[string]struct{}),
	}
}

// Add inserts url and reports whether it was not already present.
// Empty strings are ignored.
func (s *AssetSet) Add(url string) bool {
	if url == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// AddAll inserts every url and returns how many were new
func (s *AssetSet) AddAll(urls []string) int {
	added := 0
	for _, u := range urls {
		if s.Add(u) {
			added++
		}
	}
	return added
}

// Contains reports whether url is in the set
func (s *AssetSet) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[url]
	return ok
}

// Len returns the number of distinct URLs
func (s *AssetSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Values returns a copy of the URLs in insertion order
func (s *AssetSet) Values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
