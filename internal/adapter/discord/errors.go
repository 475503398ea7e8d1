package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/pscheid92/countbot/internal/domain"
)

// mapError translates Discord REST errors into domain sentinels where one exists.
func mapError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return err
	}

	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMessage:
		return fmt.Errorf("%w: %w", domain.ErrMessageNotFound, err)
	case discordgo.ErrCodeUnknownMember:
		return fmt.Errorf("%w: %w", domain.ErrMemberNotFound, err)
	}
	return err
}

// countsAsFailure decides whether an error says something about Discord's
// health. Client errors such as missing permissions or deleted messages do not
// trip the breaker; rate limits and server errors do.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return true
	}
	code := restErr.Response.StatusCode
	return code == http.StatusTooManyRequests || code >= 500
}
