package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/law-makers/scrollgrab/pkg/models"
)

var csvHeader = []string{"id", "url", "file", "state", "size", "duration_ms", "error"}

// writeCSV writes one row per item
func writeCSV(w io.Writer, run *models.Run) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, item := range newRunView(run).Items {
		row := []string{
			item.ID,
			item.URL,
			item.File,
			item.State,
			strconv.FormatInt(item.Size, 10),
			strconv.FormatInt(item.DurationMS, 10),
			item.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
