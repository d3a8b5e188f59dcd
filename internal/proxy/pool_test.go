package proxy

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRotator(t *testing.T) {
	r, err := Parse([]string{"p1:8080", "http://p2:8080", "socks5://p3:1080"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Test rotation
	for _, want := range []string{"p1:8080", "p2:8080", "p3:1080", "p1:8080"} {
		if p := r.Next(); p.Host != want {
			t.Errorf("Expected %s, got %s", want, p.Host)
		}
	}

	// Current index is at p2 (after returning p1)
	p2 := r.proxies[1]
	r.MarkFailed(p2)
	if p := r.Next(); p.Host != "p3:1080" {
		t.Errorf("Expected p3 (skipping p2), got %s", p.Host)
	}
	if p := r.Next(); p.Host != "p1:8080" {
		t.Errorf("Expected p1, got %s", p.Host)
	}

	r.MarkHealthy(p2)
	if p := r.Next(); p.Host != "p2:8080" {
		t.Errorf("Expected p2 after MarkHealthy, got %s", p.Host)
	}
}

func TestRotator_CooldownExpires(t *testing.T) {
	r, _ := Parse([]string{"a:1", "b:1"})
	now := time.Now()
	r.now = func() time.Time { return now }

	r.MarkFailed(r.proxies[0])
	if p := r.Next(); p.Host != "b:1" {
		t.Fatalf("Expected b while a cools down, got %s", p.Host)
	}

	now = now.Add(DefaultCooldown + time.Second)
	if p := r.Next(); p.Host != "a:1" {
		t.Errorf("Expected a after cooldown, got %s", p.Host)
	}
}

func TestRotator_AllFailed(t *testing.T) {
	r, _ := Parse([]string{"a:1"})
	r.MarkFailed(r.proxies[0])
	if p := r.Next(); p == nil || p.Host != "a:1" {
		t.Errorf("Expected the only proxy to be returned anyway, got %v", p)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]string{"ftp://x:21"}); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
	if r, err := Parse(nil); err != nil || r.Next() != nil {
		t.Error("Empty rotator should yield no proxy")
	}
}

func TestProxyFunc_RecordsChoice(t *testing.T) {
	r, _ := Parse([]string{"a:1"})
	ctx, choice := WithChoice(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://example.com", nil)

	p, err := r.ProxyFunc()(req)
	if err != nil || p == nil {
		t.Fatalf("ProxyFunc failed: %v", err)
	}
	if choice.URL() != p {
		t.Errorf("Choice did not record the proxy")
	}
}
