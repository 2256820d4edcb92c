package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"
)

// AlertConfig defines alert destinations.
type AlertConfig struct {
	Webhook string
	Command string
}

// Notifier sends alert notifications.
type Notifier struct {
	cfg    AlertConfig
	client *http.Client
}

// NewNotifier creates a notifier.
func NewNotifier(cfg AlertConfig) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Enabled returns true if any alert destination is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && (n.cfg.Webhook != "" || n.cfg.Command != "")
}

// Notify sends an alert event asynchronously.
func (n *Notifier) Notify(event string, payload any) {
	if !n.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Send(ctx, event, payload); err != nil {
			slog.Warn("alert delivery failed", "event", event, "error", err)
		}
	}()
}

var blockedHosts = []string{"metadata.google.internal", "localhost"}

// validateWebhookURL checks that the webhook URL uses http/https and does not
// target loopback, private, link-local, or cloud metadata endpoints.
func validateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https scheme, got %q", scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return errors.New("webhook URL has no host")
	}
	for _, b := range blockedHosts {
		if host == b {
			return fmt.Errorf("webhook URL host %q is blocked", host)
		}
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return fmt.Errorf("webhook URL host %q is blocked", host)
		}
	}
	return nil
}

// Send delivers one event to every configured destination and returns the
// joined delivery errors.
func (n *Notifier) Send(ctx context.Context, event string, payload any) error {
	body := map[string]any{
		"event":   event,
		"payload": payload,
		"ts":      time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("alert marshal: %w", err)
	}

	var errs []error
	if n.cfg.Webhook != "" {
		if err := n.post(ctx, data); err != nil {
			errs = append(errs, err)
		}
	}
	if n.cfg.Command != "" {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		cmd := exec.CommandContext(ctx, "sh", "-c", n.cfg.Command)
		cmd.Env = append(os.Environ(), "ENGINETWIN_EVENT="+event, "ENGINETWIN_PAYLOAD="+string(data))
		if err := cmd.Run(); err != nil {
			errs = append(errs, fmt.Errorf("alert command: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) post(ctx context.Context, data []byte) error {
	if err := validateWebhookURL(n.cfg.Webhook); err != nil {
		return fmt.Errorf("webhook blocked: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Webhook, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}
