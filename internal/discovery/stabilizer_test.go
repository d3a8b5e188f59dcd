package discovery

import (
	"fmt"
	"sync"
	"testing"
)

func TestDetector_Observe(t *testing.T) {
	tests := []struct {
		name      string
		maxSteps  int
		repeats   int
		samples   []float64
		wantStops int // index at which Stop is first returned, -1 for never
		reason    StopReason
	}{
		{"first sample is growth", 10, 1, []float64{0}, -1, ReasonNone},
		{"three repeats stop", 10, 3, []float64{100, 100, 100, 100}, 3, ReasonNoGrowth},
		{"growth resets repeats", 10, 2, []float64{100, 100, 200, 200, 200}, 4, ReasonNoGrowth},
		{"shrink counts as growth", 10, 2, []float64{300, 200, 100, 100, 100}, 4, ReasonNoGrowth},
		{"step cap", 3, 5, []float64{1, 2, 3, 4}, 2, ReasonStepCap},
		{"single repeat", 10, 1, []float64{5, 5}, 1, ReasonNoGrowth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(tt.maxSteps, tt.repeats)
			stoppedAt := -1
			for i, s := range tt.samples {
				if d.Observe(s) == Stop {
					stoppedAt = i
					break
				}
			}
			if stoppedAt != tt.wantStops {
				t.Errorf("Stopped at %d, want %d", stoppedAt, tt.wantStops)
			}
			if d.Reason() != tt.reason {
				t.Errorf("Reason %v, want %v", d.Reason(), tt.reason)
			}
		})
	}
}

func TestDetector_StallCountsAsRepeat(t *testing.T) {
	d := NewDetector(10, 3)
	d.Observe(100)

	if d.Stall() != Continue || d.Stall() != Continue {
		t.Fatal("Expected to continue after two stalls")
	}
	if d.Stall() != Stop {
		t.Fatal("Expected stop after third stall")
	}
	if prev, ok := d.Previous(); !ok || prev != 100 {
		t.Errorf("Stall must not change the previous extent, got %v", prev)
	}
}

func TestDetector_GrowthAfterStallResets(t *testing.T) {
	d := NewDetector(10, 2)
	d.Observe(100)
	d.Stall()
	if d.Observe(200) != Continue {
		t.Fatal("Growth should continue")
	}
	if d.Repeats() != 0 {
		t.Errorf("Expected repeats reset, got %d", d.Repeats())
	}
	if d.Steps() != 2 {
		t.Errorf("Expected 2 steps, got %d", d.Steps())
	}
}

func TestNewDetector_ClampsLimits(t *testing.T) {
	d := NewDetector(0, 0)
	if d.Observe(1) != Stop {
		t.Error("A step cap of 1 should stop after the first growth")
	}
}

func TestAssetSet_Dedup(t *testing.T) {
	s := NewAssetSet()
	for _, u := range []string{"https://x/a.mp4", "https://x/a.mp4", "https://x/b.webm", ""} {
		s.Add(u)
	}

	got := s.Values()
	if len(got) != 2 || got[0] != "https://x/a.mp4" || got[1] != "https://x/b.webm" {
		t.Errorf("Unexpected values %v", got)
	}

	got[0] = "mutated"
	if !s.Contains("https://x/a.mp4") {
		t.Error("Values must return a copy")
	}
}

func TestAssetSet_ConcurrentAdd(t *testing.T) {
	s := NewAssetSet()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Add(fmt.Sprintf("https://cdn/%d.mp4", i))
			}
		}()
	}
	wg.Wait()

	if s.Len() != 100 {
		t.Errorf("Expected 100 unique URLs, got %d", s.Len())
	}
}
