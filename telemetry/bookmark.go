package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFlawlessWave BookmarkType = "flawless_wave"
	BookmarkBaseBreach   BookmarkType = "base_breach"
	BookmarkEnergyCrisis BookmarkType = "energy_crisis"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Wave        int          `csv:"wave"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"wave", b.Wave,
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector flags notable waves against a rolling history.
type BookmarkDetector struct {
	history     []WaveStats
	historySize int
	historyIdx  int
	historyFull bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WaveStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes a completed wave and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WaveStats) []Bookmark {
	var bookmarks []Bookmark

	// Flawless: every spawn killed, nothing leaked
	if b := bd.checkFlawless(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Breach: leaks with none in history, or double the rolling average
	if b := bd.checkBaseBreach(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Energy crisis: links lost while energy ended under half its rolling average
	if b := bd.checkEnergyCrisis(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WaveStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WaveStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkFlawless(stats WaveStats) *Bookmark {
	if stats.Spawned == 0 || stats.Leaked > 0 || stats.Killed < stats.Spawned {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFlawlessWave,
		Wave:        stats.Wave,
		Tick:        stats.EndTick,
		Description: fmt.Sprintf("all %d enemies killed, no leaks", stats.Spawned),
	}
}

func (bd *BookmarkDetector) checkBaseBreach(stats WaveStats) *Bookmark {
	if stats.Leaked == 0 {
		return nil
	}
	history := bd.getHistory()

	var total int
	for _, h := range history {
		total += h.Leaked
	}
	if len(history) > 0 && total > 0 {
		avg := float64(total) / float64(len(history))
		if float64(stats.Leaked) < 2*avg {
			return nil
		}
	}

	return &Bookmark{
		Type:        BookmarkBaseBreach,
		Wave:        stats.Wave,
		Tick:        stats.EndTick,
		Description: fmt.Sprintf("%d enemies leaked, %d lives left", stats.Leaked, stats.Lives),
	}
}

func (bd *BookmarkDetector) checkEnergyCrisis(stats WaveStats) *Bookmark {
	history := bd.getHistory()
	if len(history) == 0 || stats.LinksBroken == 0 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Energy
	}
	avg := float64(total) / float64(len(history))
	if avg <= 0 || float64(stats.Energy) >= avg/2 {
		return nil
	}

	return &Bookmark{
		Type:        BookmarkEnergyCrisis,
		Wave:        stats.Wave,
		Tick:        stats.EndTick,
		Description: fmt.Sprintf("energy fell to %d (avg %.0f), %d links broken", stats.Energy, avg, stats.LinksBroken),
	}
}
