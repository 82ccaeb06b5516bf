package notify

import (
	"context"
	"fmt"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/pkg/utils"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailSender delivers one message to one recipient.
type EmailSender interface {
	SendEmail(ctx context.Context, to entity.Recipient, msg Message) error
}

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendgridSender struct {
	client sendgridClient
	from   *mail.Email
	log    *zap.Logger
}

// NewEmailSender returns a SendGrid backed sender. Without an API key it
// returns a sender that only logs, so local setups work without credentials.
func NewEmailSender(cfg utils.SendGridConfig, log *zap.Logger) EmailSender {
	log = log.With(zap.String("component", "email"))

	if cfg.APIKey == "" {
		log.Warn("SENDGRID_API_KEY not set, emails will be logged instead of sent")
		return &logSender{log: log}
	}

	return newSendgridSender(sendgrid.NewSendClient(cfg.APIKey), cfg.FromEmail, cfg.FromName, log)
}

func newSendgridSender(client sendgridClient, fromEmail, fromName string, log *zap.Logger) *sendgridSender {
	return &sendgridSender{
		client: client,
		from:   mail.NewEmail(fromName, fromEmail),
		log:    log,
	}
}

func (s *sendgridSender) SendEmail(ctx context.Context, to entity.Recipient, msg Message) error {
	message := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(to.Name, to.Email), msg.Plain, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to.Email, err)
	}

	if response.StatusCode >= 400 {
		s.log.Error("SendGrid rejected email",
			zap.String("to", to.Email),
			zap.Int("status_code", response.StatusCode),
			zap.String("body", response.Body),
		)
		return fmt.Errorf("failed to send email to %s: %d", to.Email, response.StatusCode)
	}

	return nil
}

type logSender struct {
	log *zap.Logger
}

func (s *logSender) SendEmail(ctx context.Context, to entity.Recipient, msg Message) error {
	s.log.Info("Email not sent, delivery disabled",
		zap.String("to", to.Email),
		zap.String("subject", msg.Subject),
	)
	return nil
}
