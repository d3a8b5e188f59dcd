package auth

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := &FileStore{Dir: t.TempDir()}

	session := &SessionData{
		Name:      "gallery",
		URL:       "https://example.com/feed",
		Cookies:   []Cookie{{Name: "sid", Value: "abc", Domain: ".example.com", Path: "/"}},
		CreatedAt: time.Now().Truncate(time.Second),
	}
	if err := store.Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load("gallery")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.URL != session.URL || len(loaded.Cookies) != 1 || loaded.Cookies[0].Value != "abc" {
		t.Errorf("Loaded session differs: %+v", loaded)
	}

	names, err := store.List()
	if err != nil || len(names) != 1 || names[0] != "gallery" {
		t.Errorf("List = %v, %v", names, err)
	}

	if err := store.Delete("gallery"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete("gallery"); err != nil {
		t.Errorf("Deleting a missing session should succeed: %v", err)
	}
	if names, _ := store.List(); len(names) != 0 {
		t.Errorf("Expected no sessions, got %v", names)
	}
}

func TestFileStore_RejectsBadNames(t *testing.T) {
	store := &FileStore{Dir: t.TempDir()}
	for _, name := range []string{"", "../escape", "a/b"} {
		if err := store.Save(&SessionData{Name: name}); err == nil {
			t.Errorf("Expected error saving %q", name)
		}
	}
}

func TestLoadValid_Expired(t *testing.T) {
	store := &FileStore{Dir: t.TempDir()}
	store.Save(&SessionData{Name: "old", ExpiresAt: time.Now().Add(-time.Hour)})

	if _, err := LoadValid(store, "old"); err == nil {
		t.Error("Expected expired session error")
	}
}

func TestSetExpiryFromCookies(t *testing.T) {
	s := &SessionData{Cookies: []Cookie{
		{Name: "a", Expires: 1000},
		{Name: "b", Expires: 5000},
		{Name: "session"},
	}}
	s.SetExpiryFromCookies()
	if s.ExpiresAt.Unix() != 5000 {
		t.Errorf("ExpiresAt = %v, want unix 5000", s.ExpiresAt.Unix())
	}

	s.Cookies = []Cookie{{Name: "session"}}
	s.SetExpiryFromCookies()
	if !s.ExpiresAt.IsZero() {
		t.Error("Session-only cookies should leave ExpiresAt unset")
	}
}

func TestNewJar_SendsSessionCookies(t *testing.T) {
	session := &SessionData{
		URL: "https://www.example.com/",
		Cookies: []Cookie{
			{Name: "sid", Value: "abc", Domain: ".example.com", Path: "/", Secure: true},
			{Name: "host", Value: "only", Path: "/"},
			{Name: "other", Value: "x", Domain: "other.org", Path: "/"},
		},
	}
	jar, err := NewJar(session)
	if err != nil {
		t.Fatalf("NewJar failed: %v", err)
	}

	u, _ := url.Parse("https://cdn.example.com/v/1.mp4")
	got := cookieNames(jar.Cookies(u))
	if !got["sid"] {
		t.Errorf("Expected domain cookie on subdomain, got %v", got)
	}
	if got["other"] {
		t.Error("Cookie for another site leaked")
	}

	u, _ = url.Parse("https://www.example.com/page")
	if !cookieNames(jar.Cookies(u))["host"] {
		t.Error("Host-only cookie should fall back to the session URL")
	}
}

func TestNewJar_NilSession(t *testing.T) {
	jar, err := NewJar(nil)
	if err != nil || jar == nil {
		t.Fatalf("NewJar(nil) = %v, %v", jar, err)
	}
}

func cookieNames(cookies []*http.Cookie) map[string]bool {
	names := make(map[string]bool)
	for _, c := range cookies {
		names[c.Name] = true
	}
	return names
}

func TestParseNetscapeCookies(t *testing.T) {
	input := strings.Join([]string{
		"# Netscape HTTP Cookie File",
		"",
		".example.com\tTRUE\t/\tTRUE\t1900000000\tsid\tabc",
		"#HttpOnly_.example.com\tTRUE\t/\tFALSE\t0\ttoken\txyz",
		"short line",
	}, "\n")

	cookies, err := ParseNetscapeCookies(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cookies) != 2 {
		t.Fatalf("Expected 2 cookies, got %d", len(cookies))
	}
	if c := cookies[0]; c.Name != "sid" || !c.Secure || c.Expires != 1900000000 {
		t.Errorf("Unexpected first cookie: %+v", c)
	}
	if c := cookies[1]; !c.HTTPOnly || c.Secure || c.Expires != 0 {
		t.Errorf("Unexpected HttpOnly cookie: %+v", c)
	}
}

func TestParseJSONCookies(t *testing.T) {
	cookies, err := ParseJSONCookies(strings.NewReader(`[{"name":"sid","value":"1","domain":".x.com","httpOnly":true}]`))
	if err != nil || len(cookies) != 1 || !cookies[0].HTTPOnly {
		t.Errorf("ParseJSONCookies = %+v, %v", cookies, err)
	}
	if _, err := ParseJSONCookies(strings.NewReader("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
