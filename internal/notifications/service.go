package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podjoin/internal/config"
)

const userAgent = "Podjoin-Go/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyExportStarted(ctx context.Context, episodeDir string, chapter int) error
	NotifyExportCompleted(ctx context.Context, outputPath string, duration time.Duration) error
	NotifyExportFailed(ctx context.Context, err error, episodeDir string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyExportStarted(ctx context.Context, episodeDir string, chapter int) error {
	episodeDir = strings.TrimSpace(episodeDir)
	data := payload{
		title:   "Podjoin - Export Started",
		message: fmt.Sprintf("Started chapter %d export: %s", chapter, episodeDir),
		tags:    []string{"podjoin", "export", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportCompleted(ctx context.Context, outputPath string, duration time.Duration) error {
	outputPath = strings.TrimSpace(outputPath)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}
	data := payload{
		title:    "Podjoin - Export Complete",
		message:  fmt.Sprintf("Export complete in %s: %s", durationText, outputPath),
		tags:     []string{"podjoin", "export", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportFailed(ctx context.Context, err error, episodeDir string) error {
	var builder strings.Builder
	builder.WriteString("Export failed")
	if episodeDir = strings.TrimSpace(episodeDir); episodeDir != "" {
		builder.WriteString(" for ")
		builder.WriteString(episodeDir)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Podjoin - Error",
		message:  builder.String(),
		tags:     []string{"podjoin", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Podjoin - Test",
		message:  "Notification system test",
		tags:     []string{"podjoin", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyExportStarted(context.Context, string, int) error             { return nil }
func (noopService) NotifyExportCompleted(context.Context, string, time.Duration) error { return nil }
func (noopService) NotifyExportFailed(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
