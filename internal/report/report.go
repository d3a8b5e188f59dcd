// Package report writes a summary of a retrieval run in machine or human
// readable form.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/law-makers/scrollgrab/pkg/models"
)

// Supported formats
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// BaseName is the file name (without extension) reports are written under
const BaseName = "scrollgrab_report"

// Write renders run in format to w
func Write(w io.Writer, run *models.Run, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, run)
	case FormatCSV:
		return writeCSV(w, run)
	case FormatMarkdown:
		return writeMarkdown(w, run)
	case FormatHTML:
		return writeHTML(w, run)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteFiles writes one report per format into dir and returns their paths.
// It stops at the first failure.
func WriteFiles(run *models.Run, formats []string, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var paths []string
	for _, format := range formats {
		path := filepath.Join(dir, BaseName+"."+format)
		if err := writeFile(path, run, format); err != nil {
			return paths, fmt.Errorf("failed to write %s report: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, run *models.Run, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if err := Write(buf, run, format); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// itemView is the flattened, serializable form of an item result
type itemView struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	File       string    `json:"file"`
	State      string    `json:"state"`
	Size       int64     `json:"size"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

type runView struct {
	RunID      string       `json:"run_id"`
	TargetURL  string       `json:"target_url,omitempty"`
	OutputDir  string       `json:"output_dir"`
	Discovered int          `json:"discovered"`
	Tally      models.Tally `json:"tally"`
	Total      int          `json:"total"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Elapsed    string       `json:"elapsed"`
	Items      []itemView   `json:"items"`
}

func newRunView(run *models.Run) runView {
	items := make([]itemView, len(run.Items))
	for i, it := range run.Items {
		items[i] = itemView{
			ID:         it.ID,
			URL:        it.URL,
			File:       filepath.Base(it.FilePath),
			State:      string(it.State),
			Size:       it.Size,
			Error:      it.ErrorString(),
			StartedAt:  it.Started,
			DurationMS: it.Duration.Milliseconds(),
		}
	}
	return runView{
		RunID:      run.ID,
		TargetURL:  run.TargetURL,
		OutputDir:  run.OutputDir,
		Discovered: run.Discovered,
		Tally:      run.Tally,
		Total:      run.Tally.Total(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Elapsed:    run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
		Items:      items,
	}
}
