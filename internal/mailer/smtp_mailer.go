package mailer

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/festivalhq/admin-service/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPMailer implements the Mailer interface over SMTP.
type SMTPMailer struct {
	cfg    *config.SMTPConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

func NewSMTPMailer(cfg *config.SMTPConfig, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	serverName := cfg.ServerName
	if serverName == "" {
		serverName = cfg.Host
	}
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		dialer.SSL = true
		dialer.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	case "tls", "starttls":
		dialer.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	case "none":
		// Plain connection, local relays only.
	}

	return &SMTPMailer{
		cfg:    cfg,
		dialer: dialer,
		logger: logger.Named("SMTPMailer"),
	}, nil
}

func (s *SMTPMailer) send(toEmail, subject, htmlBody string) error {
	m := gomail.NewMessage()
	if s.cfg.SenderName != "" {
		m.SetAddressHeader("From", s.cfg.SenderEmail, s.cfg.SenderName)
	} else {
		m.SetHeader("From", s.cfg.SenderEmail)
	}
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send email", zap.String("to", toEmail), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Info("Email sent successfully", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

func (s *SMTPMailer) SendPaymentVerified(toEmail, toName string, passType int) error {
	subject := "Your festival pass payment is verified"
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your payment for pass type %d has been verified. Your pass is now active.</p>
<p>See you at the venue!</p>`, toName, passType)
	return s.send(toEmail, subject, body)
}

func (s *SMTPMailer) SendPaymentRejected(toEmail, toName, reason string) error {
	subject := "Your festival pass payment could not be verified"
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Unfortunately we could not verify your payment. Reason given by the review team:</p>
<p><b>%s</b></p>
<p>Please re-submit your payment details or contact the help desk.</p>`, toName, reason)
	return s.send(toEmail, subject, body)
}

func (s *SMTPMailer) SendOnspotConfirmation(toEmail, toName, userID string) error {
	subject := "Your on-spot festival registration"
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your on-spot registration is confirmed and your pass is already verified.</p>
<p>Show this registration id at the gate: <b>%s</b></p>`, toName, userID)
	return s.send(toEmail, subject, body)
}
