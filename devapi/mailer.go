package devapi

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Mailer delivers password reset links
type Mailer interface {
	SendResetLink(ctx context.Context, email, link string) error
}

// LogMailer writes the reset link to the log instead of sending an email
type LogMailer struct{}

func (LogMailer) SendResetLink(_ context.Context, email, link string) error {
	log.Info().Str("email", email).Str("link", link).Msg("Password reset link")
	return nil
}
