// Package mailer delivers one-time verification codes over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings for sending verification emails.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Validate checks that all required SMTP settings are present.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.Username == "" {
		return fmt.Errorf("missing SMTP_USERNAME environment variable")
	}
	if c.Password == "" {
		return fmt.Errorf("missing SMTP_PASSWORD environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP_FROM environment variable")
	}
	return nil
}

// Mailer implements gatekey.OTPSender on top of gomail. Transport failures
// never escape Send; they are reported through the delivered flag.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
	otpTTL time.Duration
	logger zerolog.Logger
}

// NewMailer creates a Mailer with the given configuration. otpTTL is only
// used to render the expiry hint in the message body.
func NewMailer(config Config, otpTTL time.Duration, logger zerolog.Logger) (*Mailer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	return &Mailer{config: config, dialer: dialer, otpTTL: otpTTL, logger: logger}, nil
}

// NewMailerFromEnv builds a Mailer from SMTP_* environment variables.
func NewMailerFromEnv(otpTTL time.Duration, logger zerolog.Logger) (*Mailer, error) {
	config, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return NewMailer(config, otpTTL, logger)
}

// Send delivers the code to the email address. Returns (false, detail) on
// any failure.
func (m *Mailer) Send(ctx context.Context, email string, code string) (bool, string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/html", m.body(code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error().Err(err).Str("email", email).Msg("failed to send verification email")
		return false, err.Error()
	}
	return true, ""
}

func (m *Mailer) body(code string) string {
	minutes := int(m.otpTTL.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf(`<div>
  <h2>Email verification code</h2>
  <p>Use the following one-time code to verify your account:</p>
  <h3 style="color: #2563eb; font-size: 24px; text-align: center;">%s</h3>
  <p>The code expires in %d minutes.</p>
</div>`, code, minutes)
}
