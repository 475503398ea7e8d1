package domain

import "time"

// Ping is one mention of a watched user.
type Ping struct {
	At       time.Time
	PingerID string
}

// PingAlert is raised when a user is mentioned too often in a short time.
type PingAlert struct {
	TargetID   string
	TargetName string
	Pings      []Ping
	Window     time.Duration
}

// Pingers returns the pinger of every ping in order, duplicates included.
func (a PingAlert) Pingers() []string {
	ids := make([]string, len(a.Pings))
	for i, p := range a.Pings {
		ids[i] = p.PingerID
	}
	return ids
}
