package retrieval

import (
	"sync/atomic"

	"github.com/law-makers/scrollgrab/pkg/models"
)

// tallyCounter accumulates item outcomes across workers
type tallyCounter struct {
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

func (t *tallyCounter) record(state models.ItemState) {
	switch state {
	case models.StateSucceeded:
		t.succeeded.Add(1)
	case models.StateSkipped:
		t.skipped.Add(1)
	default:
		t.failed.Add(1)
	}
}

func (t *tallyCounter) snapshot() models.Tally {
	return models.Tally{
		Succeeded: int(t.succeeded.Load()),
		Failed:    int(t.failed.Load()),
		Skipped:   int(t.skipped.Load()),
	}
}
