package services

import (
	"context"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"

	"sessionauth/internal/config"
	"sessionauth/internal/logger"

	"go.uber.org/zap"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService отправляет письма через SMTP.
type EmailService struct {
	auth     smtp.Auth
	from     string
	host     string
	port     string
	sendMail sendMailFunc
}

func NewEmailService(cfg *config.Config) *EmailService {
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth:     auth,
		from:     from,
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		sendMail: smtp.SendMail,
	}
}

func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.sendMail(addr, s.auth, s.from, []string{to}, buildMessage(s.from, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body)
}

// LogNotifier пишет письма в лог вместо отправки. Используется, когда SMTP
// не настроен (вне production). Токены сброса в лог не попадают.
type LogNotifier struct{}

var resetTokenRe = regexp.MustCompile(`(/reset-password/)[^\s/?#]+`)

func (LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	logger.WithCtx(ctx).Info("Письмо (SMTP не настроен)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", redactResetTokens(body)))
	return nil
}

func redactResetTokens(body string) string {
	return resetTokenRe.ReplaceAllString(body, "${1}[redacted]")
}
