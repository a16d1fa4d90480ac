package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const dialTimeout = 15 * time.Second

var ErrTLSUnavailable = errors.New("mail server does not offer STARTTLS")

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message using the configuration passed at call time
type Sender interface {
	Send(ctx context.Context, cfg *Config, msg Message) error
}

type transport func(ctx context.Context, cfg *Config, msg Message) error

// SMTP sends through gomail first and retries once over a raw net/smtp
// session when that fails
type SMTP struct {
	primary  transport
	fallback transport
}

func NewSMTP() *SMTP {
	return &SMTP{
		primary:  sendGomail,
		fallback: sendRaw,
	}
}

func (s *SMTP) Send(ctx context.Context, cfg *Config, msg Message) error {
	if cfg == nil || cfg.Username == "" || cfg.Password == "" {
		return ErrNotConfigured
	}

	if msg.To == "" {
		return errors.New("no recipient provided")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.primary(ctx, cfg, msg)
	if err == nil {
		zap.L().Debug("Mail sent", zap.String("to", msg.To), zap.String("transport", "gomail"))
		return nil
	}

	zap.L().Warn("Primary mail transport failed, trying direct SMTP", zap.Error(err), zap.String("to", msg.To))

	if err := ctx.Err(); err != nil {
		return err
	}

	if ferr := s.fallback(ctx, cfg, msg); ferr != nil {
		return fmt.Errorf("failed to send mail, %w", errors.Join(err, ferr))
	}

	zap.L().Debug("Mail sent", zap.String("to", msg.To), zap.String("transport", "smtp"))
	return nil
}

func sendGomail(_ context.Context, cfg *Config, msg Message) error {
	m := gomail.NewMessage()

	m.SetHeader("From", cfg.Sender())
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}

	return d.DialAndSend(m)
}

func sendRaw(ctx context.Context, cfg *Config, msg Message) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	// Same rule as gomail: upgrade whenever the server offers it
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return err
		}
	} else if cfg.UseTLS {
		return ErrTLSUnavailable
	}

	if err := c.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return err
	}

	from := cfg.Sender()
	if err := c.Mail(from); err != nil {
		return err
	}

	if err := c.Rcpt(msg.To); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write(buildRaw(from, msg)); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

func buildRaw(from string, msg Message) []byte {
	headers := []string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Body)
}
