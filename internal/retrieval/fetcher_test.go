package retrieval

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFetch_Success(t *testing.T) {
	content := strings.Repeat("x", 100*1024)
	var gotUA, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("Referer")
		w.Write([]byte(content))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{
		UserAgent: "Test/1.0",
		Headers:   map[string]string{"Referer": "https://example.com/"},
	})
	path := filepath.Join(t.TempDir(), "out.mp4")

	var observed bytes.Buffer
	n, err := f.Fetch(context.Background(), server.URL+"/v.mp4", path,
		func(size int64) io.Writer { return &observed }, zerolog.Nop())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("Expected %d bytes, got %d", len(content), n)
	}
	if observed.Len() != len(content) {
		t.Errorf("Progress writer saw %d bytes", observed.Len())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != content {
		t.Error("Content mismatch")
	}
	if gotUA != "Test/1.0" || gotHeader != "https://example.com/" {
		t.Errorf("Headers not sent: UA=%q Referer=%q", gotUA, gotHeader)
	}
}

func TestFetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "out.mp4")
	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), server.URL+"/v.mp4", path, nil, zerolog.Nop())
	if !errors.Is(err, ErrFetchStatus) {
		t.Fatalf("Expected status error, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("No file should be created for a non-2xx response")
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewFetcher(FetcherOptions{}).Fetch(ctx, server.URL+"/v.mp4", filepath.Join(t.TempDir(), "out.mp4"), nil, zerolog.Nop())
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("Expected timeout, got %v", err)
	}
}

func TestFetch_Transport(t *testing.T) {
	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), deadURL(t), filepath.Join(t.TempDir(), "out.mp4"), nil, zerolog.Nop())
	if !errors.Is(err, ErrFetchTransport) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestFetch_FilesystemError(t *testing.T) {
	server := mediaServer(t, nil)
	path := filepath.Join(t.TempDir(), "missing", "out.mp4")

	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), server.URL+"/v.mp4", path, nil, zerolog.Nop())
	if !errors.Is(err, ErrFilesystem) {
		t.Errorf("Expected filesystem error, got %v", err)
	}
}

func TestDeriveFilename(t *testing.T) {
	pattern := regexp.MustCompile(`^media_[0-9a-f]{12}_[0-9a-f]{10}\.(mp4|webm|mov)$`)

	tests := []struct {
		url     string
		wantExt string
	}{
		{"https://cdn.example.com/a/b/clip.webm", "webm"},
		{"https://cdn.example.com/clip.MOV?sig=abc", "mov"},
		{"https://cdn.example.com/stream?id=42", "mp4"},
		{"https://cdn.example.com/page.html", "mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			name := DeriveFilename(tt.url, "media", "")
			if !pattern.MatchString(name) {
				t.Errorf("Unexpected filename format %q", name)
			}
			if !strings.HasSuffix(name, "."+tt.wantExt) {
				t.Errorf("Expected extension %s, got %q", tt.wantExt, name)
			}
			if DeriveFilename(tt.url, "media", "") != name {
				t.Error("Filename must be stable")
			}
		})
	}

	if DeriveFilename("https://x/a.mp4", "media", "") == DeriveFilename("https://x/b.mp4", "media", "") {
		t.Error("Different URLs must map to different names")
	}
	if name := DeriveFilename("https://x/a", "../evil", "bin"); strings.Contains(name, "/") || !strings.HasSuffix(name, ".bin") {
		t.Errorf("Unsafe prefix or wrong fallback: %q", name)
	}
}
