package report

import (
	"fmt"
	"net/url"
	"path"
)

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// shortLabel turns https://cdn.host/a/b/c.mp4?sig=... into cdn.host/…/c.mp4
func shortLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return u.Host
	}
	if path.Dir(u.Path) == "/" {
		return u.Host + "/" + base
	}
	return u.Host + "/…/" + base
}
