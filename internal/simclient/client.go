// Package simclient calls the simulator's XML-RPC remote admin interface.
package simclient

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/metrics"
)

// ErrFailed is returned when the simulator answers success=false.
var ErrFailed = errors.New("remote admin call failed")

// Client is a remote admin client for one simulator.
type Client struct {
	url      string
	password string
	client   *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the remote admin endpoint at url.
func New(url, password string, opts ...Option) *Client {
	c := &Client{
		url:      url,
		password: password,
		client:   &http.Client{Timeout: constants.RemoteAdminTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes method with args plus the admin password and returns the
// response struct.
func (c *Client) Call(ctx context.Context, method string, args map[string]any) (result map[string]any, err error) {
	defer func() {
		metrics.Get().RemoteAdmin.WithLabelValues(method, metrics.Result(err)).Inc()
	}()

	members := map[string]any{"password": c.password}
	for k, v := range args {
		members[k] = v
	}
	st, err := encodeStruct(members)
	if err != nil {
		return nil, err
	}
	body, err := xml.Marshal(methodCall{
		MethodName: method,
		Params:     []param{{Value: value{Struct: st}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(append([]byte(xml.Header), body...)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	c.logger.Debug("remote admin call", "method", method, "status", resp.StatusCode, "duration", time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)
	}

	var mr methodResponse
	if err := xml.Unmarshal(raw, &mr); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", method, err)
	}
	if mr.Fault != nil {
		f, _ := decodeValue(mr.Fault.Value).(map[string]any)
		return nil, fmt.Errorf("%s fault %v: %v", method, f["faultCode"], f["faultString"])
	}
	if len(mr.Params) == 0 {
		return nil, fmt.Errorf("%s: empty response", method)
	}
	result, ok := decodeValue(mr.Params[0].Value).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: response is not a struct", method)
	}
	if success, ok := result["success"].(bool); ok && !success {
		msg, _ := result["error"].(string)
		return result, fmt.Errorf("%w: %s: %s", ErrFailed, method, msg)
	}
	return result, nil
}

// Shutdown stops the simulator after delay.
func (c *Client) Shutdown(ctx context.Context, delay time.Duration) error {
	args := map[string]any{}
	if delay > 0 {
		args["shutdown"] = "delayed"
		args["milliseconds"] = int(delay.Milliseconds())
	}
	_, err := c.Call(ctx, "admin_shutdown", args)
	return err
}

// Restart restarts one region, or every region when regionID is nil.
func (c *Client) Restart(ctx context.Context, regionID uuid.UUID) error {
	args := map[string]any{}
	if regionID != uuid.Nil {
		args["region_id"] = regionID.String()
	}
	_, err := c.Call(ctx, "admin_restart", args)
	return err
}

// Broadcast sends message to every avatar on the simulator.
func (c *Client) Broadcast(ctx context.Context, message string) error {
	_, err := c.Call(ctx, "admin_broadcast", map[string]any{"message": message})
	return err
}
