package mailer

import (
	"context"

	"github.com/diagnosis/restaurant-management/pkg/logger"
)

// DevMailer logs the code instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, code string) error {
	logger.InfoContext(ctx, "[DEV MAIL] Verification email",
		"to", toEmail,
		"name", toName,
		"subject", verificationSubject,
		"code", code,
	)
	return nil
}
