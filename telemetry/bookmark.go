package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkManualTakeover BookmarkType = "manual_takeover"
	BookmarkEnergySurge    BookmarkType = "energy_surge"
	BookmarkSettled        BookmarkType = "settled"
	BookmarkSteadyWake     BookmarkType = "steady_wake"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        uint64       `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// minSurgeEnergy keeps near-rest jitter from triggering surges.
const minSurgeEnergy = 0.01

// BookmarkDetector detects interesting moments in the field.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	wasManual          bool
	wasExcited         bool
	steadyWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkManualTakeover(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkEnergySurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSteadyWake(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	bd.wasManual = stats.Manual
	bd.wasExcited = stats.Excited > 0

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// recent returns the last n windows in insertion order.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	h := bd.getHistory()
	if len(h) < n {
		return nil
	}
	out := make([]WindowStats, 0, n)
	for i := n; i > 0; i-- {
		idx := (bd.historyIdx - i + bd.historySize) % bd.historySize
		out = append(out, bd.history[idx])
	}
	return out
}

func (bd *BookmarkDetector) checkManualTakeover(stats WindowStats) *Bookmark {
	if !stats.Manual || bd.wasManual {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkManualTakeover,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Pointer took over the attractor at (%.0f, %.0f)", stats.AttractorX, stats.AttractorY),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if !bd.wasExcited || !stats.Settled() {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Field returned to rest (max displacement %.3f px)", stats.MaxDisplacement),
	}
}

func (bd *BookmarkDetector) checkEnergySurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.MeanEnergy
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.MeanEnergy > avg*2.0 && stats.MeanEnergy > minSurgeEnergy {
		return &Bookmark{
			Type:        BookmarkEnergySurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Mean energy %.3f is %.1fx average (%.3f)", stats.MeanEnergy, stats.MeanEnergy/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSteadyWake(stats WindowStats) *Bookmark {
	if stats.Excited == 0 {
		bd.steadyWindowsCount = 0
		return nil
	}

	window := bd.recent(4)
	if window == nil {
		return nil
	}

	energies := make([]float64, len(window))
	for i, h := range window {
		energies[i] = h.MeanEnergy
	}
	mean, variance := stat.PopMeanVariance(energies, nil)

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 {
		return &Bookmark{
			Type:        BookmarkSteadyWake,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady wake with mean energy %.3f over 5+ windows", stats.MeanEnergy),
		}
	}
	return nil
}
