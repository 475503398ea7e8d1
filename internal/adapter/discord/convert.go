package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pscheid92/countbot/internal/domain"
)

// displayName prefers the global display name over the account name.
func displayName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func memberName(m *discordgo.Member, u *discordgo.User) string {
	if m != nil && m.Nick != "" {
		return m.Nick
	}
	return displayName(u)
}

func toMember(m *discordgo.Member) domain.Member {
	return domain.Member{
		UserID:      m.User.ID,
		DisplayName: memberName(m, m.User),
		Roles:       m.Roles,
		Boosting:    m.PremiumSince != nil,
	}
}

func toIncomingMessage(m *discordgo.Message) domain.IncomingMessage {
	msg := domain.IncomingMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = memberName(m.Member, m.Author)
		msg.AuthorAvatarURL = m.Author.AvatarURL("")
		msg.AuthorIsBot = m.Author.Bot
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, domain.AttachmentRef{URL: a.URL, Filename: a.Filename})
	}
	for _, u := range m.Mentions {
		msg.Mentions = append(msg.Mentions, domain.UserRef{ID: u.ID, Name: displayName(u)})
	}
	return msg
}

// toDeletedMessage combines the delete event with whatever the state still
// remembers about the message.
func toDeletedMessage(ev *discordgo.MessageDelete, channelName, selfID string) domain.DeletedMessage {
	msg := domain.DeletedMessage{
		MessageID:   ev.ID,
		ChannelID:   ev.ChannelID,
		ChannelName: channelName,
	}

	before := ev.BeforeDelete
	if before == nil {
		return msg
	}
	msg.Content = before.Content
	msg.CreatedAt = before.Timestamp
	if before.Author != nil {
		msg.AuthorID = before.Author.ID
		msg.AuthorName = displayName(before.Author)
		msg.AuthorAvatarURL = before.Author.AvatarURL("")
		msg.AuthorIsSelf = selfID != "" && before.Author.ID == selfID
	}
	return msg
}

func toReactionEvent(r *discordgo.MessageReaction, added, isBot bool) domain.ReactionEvent {
	return domain.ReactionEvent{
		Added:     added,
		UserID:    r.UserID,
		UserIsBot: isBot,
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.MessageFormat(),
	}
}
