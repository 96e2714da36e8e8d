package notifications

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divawifi/wifi/internal/config"
)

// fakeRelay is just enough of an SMTP server for net/smtp's client.
type fakeRelay struct {
	mu       sync.Mutex
	messages []string
	rcpts    []string
}

func (f *fakeRelay) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func (f *fakeRelay) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rcpts...)
}

func newFakeRelay(t *testing.T) (*fakeRelay, string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	relay := &fakeRelay{}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go relay.serve(textproto.NewConn(conn))
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return relay, addr.IP.String(), addr.Port
}

func (f *fakeRelay) serve(tp *textproto.Conn) {
	defer tp.Close()
	_ = tp.PrintfLine("220 relay.test ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-relay.test")
			_ = tp.PrintfLine("250 8BITMIME")
		case "RCPT":
			f.mu.Lock()
			f.rcpts = append(f.rcpts, arg)
			f.mu.Unlock()
			_ = tp.PrintfLine("250 accepted")
		case "DATA":
			_ = tp.PrintfLine("354 go ahead")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.messages = append(f.messages, string(body))
			f.mu.Unlock()
			_ = tp.PrintfLine("250 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("250 ok")
		}
	}
}

func testEmailConfig(host string, port int) *config.EmailConfig {
	return &config.EmailConfig{
		Enabled: true,
		From:    "grid@example.com",
		SMTP:    config.SMTPConfig{Host: host, Port: port, TLSMode: "none"},
	}
}

func TestSMTPProviderSend(t *testing.T) {
	srv, host, port := newFakeRelay(t)
	provider := NewSMTPProvider(testEmailConfig(host, port))

	err := provider.Send(context.Background(), EmailMessage{
		To:      []string{"jane@example.com"},
		Subject: "Password recovery",
		Body:    "Follow the link",
	})
	require.NoError(t, err)

	msgs := srv.received()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Subject: Password recovery")
	assert.Contains(t, msgs[0], "Follow the link")
	assert.Contains(t, msgs[0], "text/plain")
	assert.Equal(t, []string{"TO:<jane@example.com>"}, srv.recipients())
}

func TestSMTPProviderValidation(t *testing.T) {
	provider := NewSMTPProvider(testEmailConfig("127.0.0.1", 1))
	err := provider.Send(context.Background(), EmailMessage{Subject: "x"})
	assert.Error(t, err)

	disabled := NewSMTPProvider(&config.EmailConfig{Enabled: false})
	assert.NoError(t, disabled.Send(context.Background(), EmailMessage{To: []string{"a@b.c"}}))
}

func TestCompose(t *testing.T) {
	raw, err := Compose("Grid <grid@example.com>", EmailMessage{
		To:      []string{"jane@example.com"},
		Subject: "Welcome",
		Body:    "<p>Hello</p>",
		HTML:    true,
	}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, "From: \"Grid\" <grid@example.com>")
	assert.Contains(t, text, "To: <jane@example.com>")
	assert.Contains(t, text, "text/html")
	assert.Contains(t, strings.ToLower(text), "message-id:")
	assert.Contains(t, text, "<p>Hello</p>")

	_, err = Compose("not an address", EmailMessage{To: []string{"jane@example.com"}}, time.Now())
	assert.Error(t, err)
}

type recordingProvider struct {
	err error
}

func (r *recordingProvider) Send(context.Context, EmailMessage) error { return r.err }

func TestSendAsync(t *testing.T) {
	done := make(chan error, 1)
	SendAsync(&recordingProvider{err: errors.New("relay down")}, EmailMessage{To: []string{"x@y.z"}}, nil, func(err error) {
		done <- err
	})
	select {
	case err := <-done:
		assert.EqualError(t, err, "relay down")
	case <-time.After(2 * time.Second):
		t.Fatal("SendAsync did not complete")
	}
}

func TestLoginAuth(t *testing.T) {
	a := &loginAuth{username: "u", password: "p"}
	proto, _, err := a.Start(nil)
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", proto)

	resp, err := a.Next([]byte("Username:"), true)
	require.NoError(t, err)
	assert.Equal(t, "u", string(resp))
	resp, err = a.Next([]byte("Password:"), true)
	require.NoError(t, err)
	assert.Equal(t, "p", string(resp))
	_, err = a.Next([]byte("Other:"), true)
	assert.Error(t, err)
}
