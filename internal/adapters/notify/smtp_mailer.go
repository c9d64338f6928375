// Package notify tells the studio team about new leads by email.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   []string
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer emails one message per stored lead.
type Mailer struct {
	cfg    SMTPConfig
	client sender
}

func NewSMTPMailer(cfg SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("lead notification sender and recipients are required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Pass),
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &Mailer{cfg: cfg, client: client}, nil
}

// NotifyLead matches events.LeadHandler.
func (m *Mailer) NotifyLead(ctx context.Context, event domain.LeadSubmittedEvent) error {
	msg, err := m.leadMessage(event)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send lead email: %w", err)
	}
	return nil
}

func (m *Mailer) leadMessage(event domain.LeadSubmittedEvent) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if event.Email != "" {
		// Replies go straight to the visitor.
		if err := msg.ReplyTo(event.Email); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	msg.Subject(fmt.Sprintf("New enquiry: %s from %s", event.EnquiryType, event.Name))
	msg.SetBodyString(mail.TypeTextPlain, leadBody(event))
	return msg, nil
}

func leadBody(event domain.LeadSubmittedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", event.Name)
	fmt.Fprintf(&b, "Email: %s\n", event.Email)
	fmt.Fprintf(&b, "Phone: %s\n", event.Phone)
	fmt.Fprintf(&b, "Enquiry type: %s\n", event.EnquiryType)
	fmt.Fprintf(&b, "Submitted: %s\n", event.SubmittedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "Lead ID: %s\n", event.LeadID)
	if event.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", event.Message)
	}
	return b.String()
}
