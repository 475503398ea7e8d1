package app

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/domain"
)

const (
	errorRingSize   = 50
	errorsDisplayed = 3
)

// ErrorEntry is one error kept for the status report.
type ErrorEntry struct {
	At      time.Time
	Source  string
	Message string
}

// GatewayStats is what the chat gateway reports about the bot's connection.
type GatewayStats struct {
	Latency time.Duration
	Guilds  int
	Members int
}

// StatusReporter tracks uptime and recent errors and renders the status embed.
type StatusReporter struct {
	clock   clockwork.Clock
	started time.Time
	offset  time.Duration // applied when printing error times

	mu     sync.Mutex
	errors []ErrorEntry
}

func NewStatusReporter(clock clockwork.Clock, localOffset time.Duration) *StatusReporter {
	return &StatusReporter{
		clock:   clock,
		started: clock.Now(),
		offset:  localOffset,
	}
}

// RecordError implements ErrorRecorder. Only the newest errors are kept.
func (s *StatusReporter) RecordError(_ context.Context, source string, err error) {
	if err == nil {
		return
	}
	entry := ErrorEntry{At: s.clock.Now(), Source: source, Message: err.Error()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, entry)
	if len(s.errors) > errorRingSize {
		s.errors = append(s.errors[:0:0], s.errors[len(s.errors)-errorRingSize:]...)
	}
}

// Recent returns up to n of the newest errors, oldest first.
func (s *StatusReporter) Recent(n int) []ErrorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := max(len(s.errors)-n, 0)
	return append([]ErrorEntry(nil), s.errors[start:]...)
}

func (s *StatusReporter) Uptime() time.Duration {
	return s.clock.Since(s.started)
}

// Render builds the status embed shown by the ping command.
func (s *StatusReporter) Render(stats GatewayStats, requester, requesterAvatar string) domain.Notification {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return domain.Notification{
		Title:       "🏓 Pong!",
		Description: "Detailed Bot Status and Health Information",
		Color:       domain.ColorBlue,
		Fields: []domain.Field{
			{Name: "Latency", Value: fmt.Sprintf("%dms", stats.Latency.Milliseconds()), Inline: true},
			{Name: "Uptime", Value: FormatUptime(s.Uptime()), Inline: true},
			{Name: "Servers", Value: fmt.Sprint(stats.Guilds), Inline: true},
			{Name: "Members", Value: fmt.Sprint(stats.Members), Inline: true},
			{Name: "Goroutines", Value: fmt.Sprint(runtime.NumGoroutine()), Inline: true},
			{Name: "Memory Usage", Value: fmt.Sprintf("%.1f MiB", float64(mem.HeapAlloc)/(1<<20)), Inline: true},
			{Name: "Clusters", Value: "1", Inline: true},
			{Name: "Recent Errors", Value: s.recentErrorsText()},
		},
		Footer:        "Requested by " + requester,
		FooterIconURL: requesterAvatar,
		Timestamp:     s.clock.Now(),
	}
}

func (s *StatusReporter) recentErrorsText() string {
	recent := s.Recent(errorsDisplayed)
	if len(recent) == 0 {
		return "No recent errors."
	}
	lines := make([]string, len(recent))
	for i, e := range recent {
		lines[i] = fmt.Sprintf("%s - %s: %s", e.At.UTC().Add(s.offset).Format("2006-01-02 15:04:05"), e.Source, e.Message)
	}
	return strings.Join(lines, "\n")
}

// FormatUptime renders d as "1d 2h 3m 4s".
func FormatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
