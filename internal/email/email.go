package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"sort"
	"time"

	"academy-portal/internal/config"
	"academy-portal/internal/models"
)

const defaultTimeout = 10 * time.Second

// Service handles email operations
type Service struct {
	config *config.EmailConfig
	send   func(ctx context.Context, to string, msg []byte) error
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	s := &Service{config: cfg}
	s.send = s.deliver
	return s
}

var credentialsTemplate = template.Must(template.New("credentials").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #1f3a68;">Convocation: {{.Title}}</h2>
        <p>Dear {{.Name}},</p>
        <p>You have been invited to take part in the competition <strong>{{.Title}}</strong>.{{if .Window}} It is open {{.Window}}.{{end}}</p>
        <div style="background-color: #f4f6fa; border-left: 4px solid #1f3a68; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Login:</strong> {{.Login}}</p>
            <p style="margin: 5px 0;"><strong>Password:</strong> {{.Password}}</p>
        </div>
        <p>These credentials can be used only once.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.URL}}" style="background-color: #1f3a68; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Open the portal</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`))

// SendInvitationCredentials mails the one-time login of a private competition
func (s *Service) SendInvitationCredentials(ctx context.Context, to string, inv *models.CompetitionInvitation, competition *models.Competition) error {
	data := struct {
		Title, Name, Login, Password, URL, Window string
	}{
		Title:    competition.Title,
		Name:     inv.CandidateName,
		Login:    inv.LoginIdentifier,
		Password: inv.LoginPassword,
		URL:      s.config.PortalURL + "/private-competition",
		Window:   window(competition),
	}

	var body bytes.Buffer
	if err := credentialsTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render credentials email: %w", err)
	}

	subject := fmt.Sprintf("Convocation - %s", competition.Title)
	return s.sendEmail(ctx, to, subject, body.String())
}

func window(c *models.Competition) string {
	switch {
	case c.StartDate != nil && c.EndDate != nil:
		return fmt.Sprintf("from %s to %s", c.StartDate.Format("02/01/2006"), c.EndDate.Format("02/01/2006"))
	case c.EndDate != nil:
		return fmt.Sprintf("until %s", c.EndDate.Format("02/01/2006"))
	case c.StartDate != nil:
		return fmt.Sprintf("from %s", c.StartDate.Format("02/01/2006"))
	}
	return ""
}

func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	if !s.config.Enabled {
		slog.Debug("Email disabled, skipping", "to", to, "subject", subject)
		return nil
	}
	return s.send(ctx, to, buildMessage(s.config.SMTPFrom, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var message bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&message, "%s: %s\r\n", k, headers[k])
	}
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.Bytes()
}

// deliver sends an email using SMTP. The whole exchange must finish within the
// configured timeout or the deadline of ctx, whichever comes first.
func (s *Service) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Attempting to connect to SMTP server", "address", addr)

	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		slog.Error("Failed to connect to SMTP server", "address", addr, "error", err)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set SMTP deadline: %w", err)
	}
	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			slog.Debug("Failed to close SMTP connection", "error", err)
		}
	}(conn)

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		if err := client.Close(); err != nil {
			slog.Debug("Failed to close SMTP client", "error", err)
		}
	}(client)

	// Mailpit and similar dev servers accept mail without AUTH
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		_ = client.Auth(auth)
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		if err := wc.Close(); err != nil {
			slog.Error("Failed to close write closer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("Email sent successfully", "to", to)
	return nil
}
