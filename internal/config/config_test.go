package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/pkg/models"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	RegisterFlags(cmd)
	RegisterDiscoveryFlags(cmd)
	RegisterRetrievalFlags(cmd)
	RegisterSessionFlag(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(newTestCommand(t), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TargetURL != DefaultTargetURL {
		t.Errorf("TargetURL = %s", cfg.TargetURL)
	}
	if cfg.Concurrency != DefaultConcurrency || cfg.Repeats != DefaultRepeats || cfg.MaxSteps != DefaultMaxSteps {
		t.Errorf("Unexpected numeric defaults: %+v", cfg)
	}
	if cfg.Settle != DefaultSettle || cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("Unexpected duration defaults: %v %v", cfg.Settle, cfg.FetchTimeout)
	}
	if cfg.URLList != filepath.Join(DefaultOutputDir, DefaultURLListName) {
		t.Errorf("URLList = %s", cfg.URLList)
	}
	if !cfg.Headless || !cfg.ScanJSON || cfg.Engine != DefaultEngine {
		t.Errorf("Unexpected browser defaults: %+v", cfg)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scrollgrab.yaml")
	content := "concurrency: 7\nprefix: fromfile\nsettle: 3s\noutput: " + filepath.Join(dir, "out") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCROLLGRAB_CONCURRENCY", "9")
	t.Setenv("SCROLLGRAB_MAX_STEPS", "12")

	cmd := newTestCommand(t, "--config", path, "--prefix", "fromflag")
	cfg, err := Load(cmd, []string{"https://example.com/gallery"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Concurrency != 9 {
		t.Errorf("Environment should beat file: concurrency = %d", cfg.Concurrency)
	}
	if cfg.MaxSteps != 12 {
		t.Errorf("MaxSteps = %d, want 12", cfg.MaxSteps)
	}
	if cfg.Prefix != "fromflag" {
		t.Errorf("Flag should beat file: prefix = %s", cfg.Prefix)
	}
	if cfg.Settle != 3*time.Second {
		t.Errorf("Settle = %v, want 3s from file", cfg.Settle)
	}
	if cfg.TargetURL != "https://example.com/gallery" {
		t.Errorf("Positional URL ignored: %s", cfg.TargetURL)
	}
	if cfg.URLList != filepath.Join(dir, "out", DefaultURLListName) {
		t.Errorf("URL list should follow output folder: %s", cfg.URLList)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %s", cfg.ConfigFile)
	}
}

func TestLoad_RepeatableFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newTestCommand(t,
		"-H", "Referer: https://a.example, https://b.example",
		"-H", "X-Token: 1",
		"--dismiss", "button.close, .modal .x",
		"--proxy", "http://p1:8080,socks5://p2:1080",
		"--report", "JSON,csv",
	)
	cfg, err := Load(cmd, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Headers) != 2 || !strings.Contains(cfg.Headers[0], "b.example") {
		t.Errorf("Headers = %q", cfg.Headers)
	}
	if len(cfg.Dismiss) != 1 || cfg.Dismiss[0] != "button.close, .modal .x" {
		t.Errorf("Dismiss = %q", cfg.Dismiss)
	}
	if len(cfg.Proxies) != 2 {
		t.Errorf("Proxies = %q", cfg.Proxies)
	}
	if len(cfg.Reports) != 2 || cfg.Reports[0] != "json" {
		t.Errorf("Reports = %q", cfg.Reports)
	}
}

func TestLoad_ProxyFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCROLLGRAB_PROXY", "http://p1:8080,http://p2:8080")

	cfg, err := Load(newTestCommand(t), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Proxies) != 2 {
		t.Errorf("Proxies = %q", cfg.Proxies)
	}
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	cmd := newTestCommand(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load(cmd, nil)
	if models.CodeOf(err) != models.ErrCodeConfig {
		t.Errorf("Expected config error, got %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		pos  []string
	}{
		{"concurrency too high", []string{"-c", "51"}, nil},
		{"concurrency zero", []string{"-c", "0"}, nil},
		{"zero repeats", []string{"--repeats", "0"}, nil},
		{"zero steps", []string{"--max-steps", "0"}, nil},
		{"negative settle", []string{"--settle", "-1s"}, nil},
		{"zero fetch timeout", []string{"--fetch-timeout", "0s"}, nil},
		{"bad kind", []string{"--kind", "pdf"}, nil},
		{"bad engine", []string{"--engine", "webkit"}, nil},
		{"bad report", []string{"--report", "xml"}, nil},
		{"bad script", []string{"--extend-script", "window.scrollTo(0,"}, nil},
		{"verbose and quiet", []string{"-v", "-q"}, nil},
		{"relative target", nil, []string{"/explore"}},
		{"ftp target", nil, []string{"ftp://example.com/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newTestCommand(t, tt.args...), tt.pos)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var pe *models.PipelineError
			if !errors.As(err, &pe) || pe.Code != models.ErrCodeConfig {
				t.Errorf("Expected CONFIG error, got %v", err)
			}
		})
	}
}
