package report

import (
	"encoding/json"
	"io"

	"github.com/law-makers/scrollgrab/pkg/models"
)

func writeJSON(w io.Writer, run *models.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newRunView(run))
}
