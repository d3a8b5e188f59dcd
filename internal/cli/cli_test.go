package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/law-makers/scrollgrab/internal/auth"
	"github.com/law-makers/scrollgrab/internal/report"
)

// resetFlags restores every flag of cmd and its children to its default,
// since the command tree is shared between executions
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func execCLI(t *testing.T, ctx context.Context, stdin string, args ...string) result {
	t.Helper()
	t.Chdir(t.TempDir())
	resetFlags(rootCmd)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func useFileStore(t *testing.T) *auth.FileStore {
	t.Helper()
	store := &auth.FileStore{Dir: t.TempDir()}
	prev := sessionStore
	sessionStore = func() auth.Store { return store }
	t.Cleanup(func() { sessionStore = prev })
	return store
}

func mediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "gone") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("media:" + r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_DownloadsArguments(t *testing.T) {
	server := mediaServer(t)
	dir := t.TempDir()

	res := execCLI(t, context.Background(), "",
		"fetch", server.URL+"/a.mp4", server.URL+"/gone.mp4", "not a url",
		"-o", dir, "-q", "--report", "json")
	if res.code != 0 {
		t.Fatalf("Exit code %d, stderr: %s", res.code, res.stderr)
	}

	if !strings.Contains(res.stdout, "Summary:") {
		t.Errorf("Summary missing from output:\n%s", res.stdout)
	}
	if !strings.Contains(res.stderr, "Skipped 1 invalid URL") {
		t.Errorf("Invalid URL not reported:\n%s", res.stderr)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var media int
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".mp4") {
			media++
		}
	}
	if media != 1 {
		t.Errorf("Expected 1 downloaded file, found %d", media)
	}
	if _, err := os.Stat(filepath.Join(dir, report.BaseName+".json")); err != nil {
		t.Errorf("Report not written: %v", err)
	}
}

func TestFetch_ReadsListAndSkipsExisting(t *testing.T) {
	server := mediaServer(t)
	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")
	content := "# saved\n" + server.URL + "/one.mp4\n\n" + server.URL + "/two.webm\n"
	if err := os.WriteFile(list, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	first := execCLI(t, context.Background(), "", "fetch", "--from", list, "-o", dir, "-q", "--sequential")
	if first.code != 0 {
		t.Fatalf("Exit code %d, stderr: %s", first.code, first.stderr)
	}

	second := execCLI(t, context.Background(), "", "fetch", "--from", list, "-o", dir, "-q")
	if second.code != 0 {
		t.Fatalf("Exit code %d, stderr: %s", second.code, second.stderr)
	}
	if !strings.Contains(second.stdout, "2 (already present)") {
		t.Errorf("Second run should skip both files:\n%s", second.stdout)
	}
}

func TestFetch_MissingListFails(t *testing.T) {
	res := execCLI(t, context.Background(), "",
		"fetch", "--from", filepath.Join(t.TempDir(), "missing.txt"), "-o", t.TempDir(), "-q")
	if res.code != 1 {
		t.Errorf("Expected exit code 1, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "Error") {
		t.Errorf("Error not printed:\n%s", res.stderr)
	}
}

func TestExecute_InterruptExitsCleanly(t *testing.T) {
	server := mediaServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := execCLI(t, ctx, "", "fetch", server.URL+"/a.mp4", "-o", t.TempDir(), "-q")
	if res.code != 0 {
		t.Errorf("Interrupted run should exit 0, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "Interrupted by user") {
		t.Errorf("Interrupt message missing:\n%s", res.stderr)
	}
}

func TestExecute_ConfigErrorShowsCode(t *testing.T) {
	res := execCLI(t, context.Background(), "", "discover", "https://example.com", "--engine", "webkit")
	if res.code != 1 {
		t.Fatalf("Expected exit code 1, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "CONFIG") {
		t.Errorf("Error code missing:\n%s", res.stderr)
	}
}

func TestSessions_ImportListDelete(t *testing.T) {
	store := useFileStore(t)
	cookies := `[{"name":"sid","value":"abc","domain":".example.com","path":"/","expires":4102488000}]`

	res := execCLI(t, context.Background(), cookies,
		"sessions", "import", "mine", "--url", "https://www.example.com/feed", "--format", "json", "-q")
	if res.code != 0 {
		t.Fatalf("Import failed (%d): %s", res.code, res.stderr)
	}

	session, err := store.Load("mine")
	if err != nil {
		t.Fatalf("Session not saved: %v", err)
	}
	if len(session.Cookies) != 1 || session.ExpiresAt.Year() != 2100 {
		t.Errorf("Unexpected session: %+v", session)
	}

	res = execCLI(t, context.Background(), "", "sessions", "list")
	if res.code != 0 || !strings.Contains(res.stdout, "mine") {
		t.Errorf("List output missing session (%d):\n%s", res.code, res.stdout)
	}

	res = execCLI(t, context.Background(), "n\n", "sessions", "delete", "mine")
	if !strings.Contains(res.stdout, "Cancelled") {
		t.Errorf("Delete should ask first:\n%s", res.stdout)
	}
	if _, err := store.Load("mine"); err != nil {
		t.Fatalf("Session removed without confirmation: %v", err)
	}

	res = execCLI(t, context.Background(), "", "sessions", "delete", "mine", "--yes")
	if res.code != 0 {
		t.Fatalf("Delete failed: %s", res.stderr)
	}
	if names, _ := store.List(); len(names) != 0 {
		t.Errorf("Sessions left after delete: %v", names)
	}
}

func TestSessions_ListReportsUnreadableSession(t *testing.T) {
	store := useFileStore(t)
	if err := os.WriteFile(filepath.Join(store.Dir, "broken.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	res := execCLI(t, context.Background(), "", "sessions", "list", "-v")
	if res.code != 0 {
		t.Fatalf("List failed (%d): %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Error loading") {
		t.Errorf("Broken session not reported:\n%s", res.stdout)
	}
	if !strings.Contains(res.stderr, "Failed to load session") {
		t.Errorf("Debug log missing at -v:\n%s", res.stderr)
	}
}

func TestLoggerFor_WithoutState(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	logger := loggerFor(cmd)
	if logger == nil {
		t.Fatal("Expected a disabled logger, got nil")
	}
	logger.Info().Msg("discarded")
}

func TestSessions_ImportInteractive(t *testing.T) {
	store := useFileStore(t)
	input := "sid\nabc\n\n\n"

	res := execCLI(t, context.Background(), input, "sessions", "import", "typed", "--url", "https://www.example.com")
	if res.code != 0 {
		t.Fatalf("Import failed (%d): %s", res.code, res.stderr)
	}
	session, err := store.Load("typed")
	if err != nil {
		t.Fatal(err)
	}
	if session.Cookies[0].Domain != ".example.com" {
		t.Errorf("Default domain not applied: %+v", session.Cookies[0])
	}
}

func TestFetch_UsesSessionCookies(t *testing.T) {
	store := useFileStore(t)
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil {
			got = c.Value
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	err := store.Save(&auth.SessionData{
		Name:      "member",
		URL:       server.URL,
		Cookies:   []auth.Cookie{{Name: "sid", Value: "secret", Path: "/"}},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	res := execCLI(t, context.Background(), "", "fetch", server.URL+"/x.mp4", "-o", t.TempDir(), "-q", "--session", "member")
	if res.code != 0 {
		t.Fatalf("Exit code %d, stderr: %s", res.code, res.stderr)
	}
	if got != "secret" {
		t.Errorf("Session cookie not sent, got %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
