// Package notify delivers issuance notifications to recipients over SMTP.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// sendTimeout bounds one delivery attempt. A slow relay fails the
// notification for that recipient; it never stalls the batch.
const sendTimeout = 15 * time.Second

// Notification is one recipient's delivery request.
type Notification struct {
	Email      string
	Name       string
	Program    string
	IssuanceID string
}

// Config holds SMTP transport settings. Username empty means the relay
// accepts unauthenticated submissions (dev relays, MailHog).
type Config struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	FrontendBaseURL string
}

// Mailer sends certificate notifications. The message carries a permanent
// deep link to the issued certificate; the link embeds no token and never
// expires.
type Mailer struct {
	client          *mail.Client
	from            string
	frontendBaseURL string
}

func NewMailer(cfg Config) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(sendTimeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &Mailer{
		client:          client,
		from:            cfg.From,
		frontendBaseURL: cfg.FrontendBaseURL,
	}, nil
}

// Send delivers one notification. The attempt is bounded by sendTimeout
// regardless of the caller's context.
func (m *Mailer) Send(ctx context.Context, n Notification) error {
	msg, err := m.buildMessage(n)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", n.Email, err)
	}
	return nil
}

func (m *Mailer) buildMessage(n Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(n.Email); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}

	msg.Subject(fmt.Sprintf("Your certificate for %s is ready", n.Program))
	msg.SetBodyString(mail.TypeTextPlain, m.body(n))
	return msg, nil
}

func (m *Mailer) body(n Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", n.Name)
	fmt.Fprintf(&b, "Congratulations on completing %s!\n\n", n.Program)
	b.WriteString("Your certificate has been issued. View and download it any time:\n\n")
	fmt.Fprintf(&b, "    %s\n\n", m.CertificateURL(n.IssuanceID))
	b.WriteString("This link does not expire.\n")
	return b.String()
}

// CertificateURL is the permanent deep link for an issuance.
func (m *Mailer) CertificateURL(issuanceID string) string {
	return strings.TrimSuffix(m.frontendBaseURL, "/") + "/certificate/" + issuanceID
}
