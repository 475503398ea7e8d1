package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Intents covers counting, mentions, deletions, reactions and member updates.
// Message content and guild members are privileged and must be enabled for the
// application in the developer portal.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsMessageContent

// stateMessageLimit is the number of messages per channel kept in the session
// state, so deletions can still report author and content.
const stateMessageLimit = 1000

func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	s.Identify.Intents = Intents
	s.StateEnabled = true
	s.State.MaxMessageCount = stateMessageLimit
	s.State.TrackMembers = true
	s.ShouldReconnectOnError = true
	return s, nil
}
