package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/snake/internal/snake"
)

// ProgressCallback defines the interface for progress reporting during segmentation.
type ProgressCallback interface {
	// OnStart is called once the initial contour exists.
	OnStart(points, rounds int)

	// OnRound is called after every completed round.
	OnRound(stats snake.RoundStats)

	// OnComplete is called with the final result.
	OnComplete(res *Result)

	// OnError is called when segmentation fails.
	OnError(err error)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
// Useful as a default when no progress reporting is needed.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(points, rounds int)     {}
func (NoOpProgressCallback) OnRound(stats snake.RoundStats) {}
func (NoOpProgressCallback) OnComplete(res *Result)         {}
func (NoOpProgressCallback) OnError(err error)              {}

// ConsoleProgressCallback displays a progress bar on the console.
type ConsoleProgressCallback struct {
	writer    io.Writer
	prefix    string
	width     int
	rounds    int
	mutex     sync.Mutex
	startTime time.Time
}

// NewConsoleProgressCallback creates a new console progress reporter.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer: writer,
		prefix: prefix,
		width:  30,
	}
}

// WithWidth sets the progress bar width.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	c.width = width
	return c
}

func (c *ConsoleProgressCallback) OnStart(points, rounds int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.startTime = time.Now()
	c.rounds = rounds
	_, _ = fmt.Fprintf(c.writer, "%s%d points, %d rounds\n", c.prefix, points, rounds)
}

func (c *ConsoleProgressCallback) OnRound(stats snake.RoundStats) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.rounds <= 0 {
		return
	}
	filled := min(c.width*stats.Round/c.rounds, c.width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	_, _ = fmt.Fprintf(c.writer, "\r%s[%s] %d/%d points=%d moved=%d spacing=%.2f",
		c.prefix, bar, stats.Round, c.rounds, stats.Points, stats.Moved, stats.AverageSpacing)
}

func (c *ConsoleProgressCallback) OnComplete(res *Result) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elapsed := time.Since(c.startTime)
	status := ""
	if res != nil && res.Converged {
		status = " (converged)"
	}
	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted in %v%s\n", c.prefix, elapsed.Round(time.Millisecond), status)
}

func (c *ConsoleProgressCallback) OnError(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%sError: %v\n", c.prefix, err)
}

// LogProgressCallback logs progress updates using slog.
type LogProgressCallback struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogProgressCallback creates a new log-based progress reporter.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level}
}

func (l *LogProgressCallback) OnStart(points, rounds int) {
	l.logger.Log(nil, l.level, "Starting segmentation", "points", points, "rounds", rounds)
}

func (l *LogProgressCallback) OnRound(stats snake.RoundStats) {
	l.logger.Log(nil, l.level, "Round completed",
		"round", stats.Round,
		"points", stats.Points,
		"moved", stats.Moved,
		"average_spacing", stats.AverageSpacing,
		"inserted", stats.Inserted,
		"elapsed", stats.Duration)
}

func (l *LogProgressCallback) OnComplete(res *Result) {
	if res == nil {
		return
	}
	l.logger.Log(nil, l.level, "Segmentation completed",
		"rounds", res.Rounds,
		"points", len(res.Points),
		"converged", res.Converged)
}

func (l *LogProgressCallback) OnError(err error) {
	l.logger.Log(nil, slog.LevelError, "Segmentation error", "error", err)
}

// MultiProgressCallback combines multiple progress callbacks.
type MultiProgressCallback struct {
	callbacks []ProgressCallback
}

// NewMultiProgressCallback creates a progress callback that reports to multiple callbacks.
func NewMultiProgressCallback(callbacks ...ProgressCallback) *MultiProgressCallback {
	return &MultiProgressCallback{callbacks: callbacks}
}

func (m *MultiProgressCallback) OnStart(points, rounds int) {
	for _, cb := range m.callbacks {
		cb.OnStart(points, rounds)
	}
}

func (m *MultiProgressCallback) OnRound(stats snake.RoundStats) {
	for _, cb := range m.callbacks {
		cb.OnRound(stats)
	}
}

func (m *MultiProgressCallback) OnComplete(res *Result) {
	for _, cb := range m.callbacks {
		cb.OnComplete(res)
	}
}

func (m *MultiProgressCallback) OnError(err error) {
	for _, cb := range m.callbacks {
		cb.OnError(err)
	}
}
