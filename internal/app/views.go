package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/pscheid92/countbot/internal/domain"
)

// Render builds the count_record embed.
func (v RecordView) Render(requester, requesterAvatar string, at time.Time) domain.Notification {
	return domain.Notification{
		Title:       "🏆 Counting Game Record",
		Description: fmt.Sprintf("The highest count achieved in the counting game is **%d**!", v.Highest),
		Color:       domain.ColorGold,
		Fields: []domain.Field{
			{Name: "Current Count", Value: fmt.Sprintf("The current count is **%d**", v.Current), Inline: true},
			{Name: "Progress", Value: fmt.Sprintf("**%d%%** of the record", v.Progress), Inline: true},
		},
		Footer:        "Requested by " + requester,
		FooterIconURL: requesterAvatar,
		Timestamp:     at,
	}
}

// Render builds the listboosters embed.
func (l BoosterList) Render() domain.Notification {
	n := domain.Notification{
		Title:       "Server Boosters",
		Description: fmt.Sprintf("Total Boosters: %d", l.Total),
		Color:       domain.ColorBlue,
	}
	if len(l.Preview) == 0 {
		n.Fields = []domain.Field{{Name: "Boosters", Value: "No boosters found."}}
		return n
	}
	n.Fields = []domain.Field{{Name: "Some Boosters:", Value: strings.Join(l.Preview, "\n")}}
	return n
}
