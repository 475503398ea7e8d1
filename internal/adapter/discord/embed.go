package discord

import (
	"bytes"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pscheid92/countbot/internal/domain"
)

// Embed limits enforced by the Discord API.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFooter      = 2048
	maxFields      = 25
	maxFilesPerMsg = 10
)

func toEmbed(n domain.Notification) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       clip(n.Title, maxTitle),
		Description: clip(n.Description, maxDescription),
		Color:       n.Color,
	}
	for _, f := range n.Fields[:min(len(n.Fields), maxFields)] {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   clip(f.Name, maxFieldName),
			Value:  clip(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	if n.AuthorName != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: n.AuthorName, IconURL: n.AuthorIconURL}
	}
	if n.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: n.ThumbnailURL}
	}
	if n.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: clip(n.Footer, maxFooter), IconURL: n.FooterIconURL}
	}
	if !n.Timestamp.IsZero() {
		e.Timestamp = n.Timestamp.UTC().Format(time.RFC3339)
	}
	return e
}

func toFiles(files []domain.Attachment) []*discordgo.File {
	out := make([]*discordgo.File, len(files))
	for i, f := range files {
		out[i] = &discordgo.File{Name: f.Filename, Reader: bytes.NewReader(f.Data)}
	}
	return out
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
