// Package notifications sends account and password recovery mail.
package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/metrics"
)

// EmailMessage is one outbound mail.
type EmailMessage struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// EmailProvider delivers mail.
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPProvider delivers through the configured SMTP relay.
type SMTPProvider struct {
	cfg     *config.EmailConfig
	timeout time.Duration
}

// NewSMTPProvider creates a provider for cfg.
func NewSMTPProvider(cfg *config.EmailConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, timeout: 30 * time.Second}
}

// Compose renders msg as an RFC 5322 message.
func Compose(from string, msg EmailMessage, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	h.SetAddressList("From", []*mail.Address{fromAddr})
	to := make([]*mail.Address, 0, len(msg.To))
	for _, rcpt := range msg.To {
		addr, err := mail.ParseAddress(rcpt)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", rcpt, err)
		}
		to = append(to, addr)
	}
	h.SetAddressList("To", to)
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}
	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

// Send delivers msg. A disabled mail configuration silently drops it.
func (s *SMTPProvider) Send(ctx context.Context, msg EmailMessage) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return nil
	}
	if len(msg.To) == 0 {
		return errors.New("mail has no recipients")
	}
	data, err := Compose(s.cfg.From, msg, time.Now())
	if err != nil {
		return err
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.deliver(client, msg.To, data); err != nil {
		return err
	}
	return client.Quit()
}

// dial opens a session with the relay, upgraded to TLS and authenticated as
// the configuration asks.
func (s *SMTPProvider) dial(ctx context.Context) (*smtp.Client, error) {
	relay := s.cfg.SMTP
	addr := net.JoinHostPort(relay.Host, strconv.Itoa(relay.Port))
	tlsCfg := &tls.Config{ServerName: relay.Host, InsecureSkipVerify: relay.SkipVerify}
	nd := &net.Dialer{Timeout: s.timeout}
	mode := s.cfg.EffectiveTLSMode()

	var (
		conn net.Conn
		err  error
	)
	if mode == "smtps" {
		conn, err = (&tls.Dialer{NetDialer: nd, Config: tlsCfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = nd.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, relay.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp greeting from %s: %w", addr, err)
	}
	if mode == "starttls" {
		if err := client.StartTLS(tlsCfg); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}
	if auth := s.auth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp auth as %s: %w", relay.User, err)
		}
	}
	return client, nil
}

func (s *SMTPProvider) auth() smtp.Auth {
	relay := s.cfg.SMTP
	if relay.User == "" || relay.Password == "" {
		return nil
	}
	if relay.AuthType == "login" {
		return &loginAuth{username: relay.User, password: relay.Password}
	}
	return smtp.PlainAuth("", relay.User, relay.Password, relay.Host)
}

func (s *SMTPProvider) deliver(client *smtp.Client, rcpts []string, data []byte) error {
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM %s: %w", s.cfg.From, err)
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	return w.Close()
}

// SendAsync delivers msg in the background. The outcome is logged and passed
// to done when non-nil; callers never wait on it.
func SendAsync(provider EmailProvider, msg EmailMessage, logger *slog.Logger, done func(error)) {
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		err := provider.Send(ctx, msg)
		metrics.Get().MailsSent.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			logger.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		} else {
			logger.Info("mail delivered", "to", msg.To, "subject", msg.Subject)
		}
		if done != nil {
			done(err)
		}
	}()
}

// loginAuth answers the LOGIN mechanism's two prompts. net/smtp only ships
// PLAIN and CRAM-MD5.
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(*smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(challenge []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.TrimSpace(string(challenge)) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	}
	return nil, fmt.Errorf("unexpected LOGIN challenge %q", challenge)
}
