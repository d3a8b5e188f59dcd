package auth

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPCookie converts a stored cookie to net/http form
func (c Cookie) HTTPCookie() *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
	if hc.Path == "" {
		hc.Path = "/"
	}
	if c.Expires > 0 {
		hc.Expires = time.Unix(int64(c.Expires), 0)
	}
	switch c.SameSite {
	case "Strict":
		hc.SameSite = http.SameSiteStrictMode
	case "Lax":
		hc.SameSite = http.SameSiteLaxMode
	case "None":
		hc.SameSite = http.SameSiteNoneMode
	}
	return hc
}

// NewJar builds a cookie jar holding the session's cookies so plain HTTP
// downloads carry the same identity as the browser.
func NewJar(session *SessionData) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if session == nil {
		return jar, nil
	}

	// The jar files cookies by the URL they were set from
	byOrigin := make(map[string][]*http.Cookie)
	for _, c := range session.Cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			if u, err := url.Parse(session.URL); err == nil {
				host = u.Hostname()
			}
		}
		if host == "" {
			continue
		}
		scheme := "http"
		if c.Secure {
			scheme = "https"
		}
		origin := scheme + "://" + host + "/"
		byOrigin[origin] = append(byOrigin[origin], c.HTTPCookie())
	}

	for origin, cookies := range byOrigin {
		u, err := url.Parse(origin)
		if err != nil {
			continue
		}
		jar.SetCookies(u, cookies)
	}
	return jar, nil
}
