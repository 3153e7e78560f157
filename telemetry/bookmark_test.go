package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FlawlessWave(t *testing.T) {
	bd := NewBookmarkDetector(5)

	tests := []struct {
		name  string
		stats WaveStats
		want  bool
	}{
		{"all killed", WaveStats{Wave: 1, Spawned: 5, Killed: 5}, true},
		{"one leak", WaveStats{Wave: 2, Spawned: 5, Killed: 4, Leaked: 1}, false},
		{"empty wave", WaveStats{Wave: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasBookmark(bd.Check(tt.stats), BookmarkFlawlessWave); got != tt.want {
				t.Errorf("flawless = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookmarkDetector_BaseBreach(t *testing.T) {
	bd := NewBookmarkDetector(5)

	// First leak with a clean history triggers
	if !hasBookmark(bd.Check(WaveStats{Wave: 1, Spawned: 5, Killed: 4, Leaked: 1}), BookmarkBaseBreach) {
		t.Error("expected base_breach on first leak")
	}
	// Comparable leak count against the average does not
	if hasBookmark(bd.Check(WaveStats{Wave: 2, Spawned: 5, Killed: 4, Leaked: 1}), BookmarkBaseBreach) {
		t.Error("unexpected base_breach at average leak rate")
	}
	// Double the average triggers
	if !hasBookmark(bd.Check(WaveStats{Wave: 3, Spawned: 8, Killed: 4, Leaked: 4}), BookmarkBaseBreach) {
		t.Error("expected base_breach at 2x average leaks")
	}
}

func TestBookmarkDetector_EnergyCrisis(t *testing.T) {
	bd := NewBookmarkDetector(5)

	for i := 1; i <= 3; i++ {
		bd.Check(WaveStats{Wave: i, Energy: 800})
	}
	// Low energy alone is not a crisis
	if hasBookmark(bd.Check(WaveStats{Wave: 4, Energy: 100}), BookmarkEnergyCrisis) {
		t.Error("unexpected energy_crisis without broken links")
	}
	bms := bd.Check(WaveStats{Wave: 5, Energy: 50, LinksBroken: 2})
	if !hasBookmark(bms, BookmarkEnergyCrisis) {
		t.Fatal("expected energy_crisis bookmark")
	}
	if bms[0].Wave != 5 {
		t.Errorf("bookmark wave = %d, want 5", bms[0].Wave)
	}
}
