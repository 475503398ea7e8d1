package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0d 0h 0m 0s", FormatUptime(0))
	assert.Equal(t, "1d 2h 3m 4s", FormatUptime(26*time.Hour+3*time.Minute+4*time.Second+500*time.Millisecond))
}

func TestStatusReporter_KeepsNewestErrors(t *testing.T) {
	s := NewStatusReporter(clockwork.NewFakeClock(), 0)

	for i := 0; i < 60; i++ {
		s.RecordError(context.Background(), "test", fmt.Errorf("error %d", i))
	}
	s.RecordError(context.Background(), "test", nil)

	all := s.Recent(100)
	require.Len(t, all, 50)
	assert.Equal(t, "error 10", all[0].Message)
	assert.Equal(t, "error 59", all[49].Message)

	last := s.Recent(3)
	assert.Equal(t, []string{"error 57", "error 58", "error 59"}, []string{last[0].Message, last[1].Message, last[2].Message})
}

func TestStatusReporter_Render(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewStatusReporter(clock, 5*time.Hour)
	clock.Advance(90 * time.Minute)

	n := s.Render(GatewayStats{Latency: 42 * time.Millisecond, Guilds: 1, Members: 250}, "alice", "https://cdn/a.png")

	assert.Equal(t, "🏓 Pong!", n.Title)
	values := make(map[string]string)
	for _, f := range n.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "42ms", values["Latency"])
	assert.Equal(t, "0d 1h 30m 0s", values["Uptime"])
	assert.Equal(t, "1", values["Servers"])
	assert.Equal(t, "250", values["Members"])
	assert.Equal(t, "No recent errors.", values["Recent Errors"])
	assert.Equal(t, "Requested by alice", n.Footer)
}

func TestStatusReporter_RenderRecentErrorsWithOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC))
	s := NewStatusReporter(clock, 5*time.Hour)
	s.RecordError(context.Background(), "counting", errors.New("db down"))

	n := s.Render(GatewayStats{}, "alice", "")

	last := n.Fields[len(n.Fields)-1]
	assert.Equal(t, "Recent Errors", last.Name)
	assert.Equal(t, "2025-01-02 01:00:00 - counting: db down", last.Value)
}
