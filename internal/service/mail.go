package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// MailSender delivers account mail. Callers invoke it fire-and-forget: a
// delivery failure is logged and never affects the operation that queued it.
type MailSender interface {
	SendVerificationMail(ctx context.Context, to, username, activationURL string) error
}

// LogMailSender is the development sender; it only logs the mail.
type LogMailSender struct {
	logger *slog.Logger
}

func NewLogMailSender(logger *slog.Logger) *LogMailSender {
	return &LogMailSender{logger: logger}
}

func (s *LogMailSender) SendVerificationMail(ctx context.Context, to, username, activationURL string) error {
	s.logger.InfoContext(ctx, "verification mail (not sent, mail disabled)",
		"to", to, "username", username, "activation_url", activationURL)
	return nil
}

type SMTPMailSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailSender(addr, from, username, password string) *SMTPMailSender {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if idx := strings.IndexByte(addr, ':'); idx >= 0 {
			host = addr[:idx]
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailSender{addr: addr, from: from, auth: auth}
}

func (s *SMTPMailSender) SendVerificationMail(ctx context.Context, to, username, activationURL string) error {
	body := fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: Activate your SocialWall account\r\n\r\n"+
		"Hi %s,\r\n\r\nfollow this link to activate your account:\r\n%s\r\n",
		to, s.from, username, activationURL)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}
