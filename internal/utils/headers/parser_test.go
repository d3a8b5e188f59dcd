package headers

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	in := []string{"user-agent: Bot", "Referer: https://example.com/a:b", "X-Empty:"}
	out, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	expected := map[string]string{
		"User-Agent": "Bot",
		"Referer":    "https://example.com/a:b",
		"X-Empty":    "",
	}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, h := range []string{"BadHeader", ": value", "Bad Name: x", "X-Line: a\nb"} {
		if _, err := Parse([]string{h}); err == nil {
			t.Errorf("expected error for %q", h)
		}
	}
}

func TestMerge(t *testing.T) {
	base := map[string]string{"referer": "a", "Cookie": "x"}
	out := Merge(base, map[string]string{"Referer": "b"})
	if out["Referer"] != "b" || out["Cookie"] != "x" || len(out) != 2 {
		t.Errorf("unexpected merge: %#v", out)
	}
	if base["referer"] != "a" {
		t.Error("base was modified")
	}
}
