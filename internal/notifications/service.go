// Package notifications sends run-level push notifications through ntfy.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shortloop/internal/config"
)

const userAgent = "Shortloop/0.1.0"

// Service defines the notification surface exposed to the engine.
type Service interface {
	NotifyRunStarted(ctx context.Context, sources, budget int) error
	NotifyRunCompleted(ctx context.Context, published, failed int, duration time.Duration) error
	NotifyPublishFailed(ctx context.Context, itemTitle string, attempts int) error
	NotifyAnalyticsApplied(ctx context.Context, sourcesUpdated, itemsMatched int) error
	NotifyError(ctx context.Context, err error, context string) error
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
		endpoint:   topic,
		client:     client,
		runSummary: cfg.Notifications.RunSummary,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	runSummary bool
	errors     bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, sources, budget int) error {
	if !n.runSummary {
		return nil
	}
	data := payload{
		title:   "Shortloop - Run Started",
		message: fmt.Sprintf("Run started: %d sources selected, budget %d items", sources, budget),
		tags:    []string{"shortloop", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, published, failed int, duration time.Duration) error {
	if !n.runSummary {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Shortloop - Run Complete"
		message = fmt.Sprintf("Run complete: %d items published in %s", published, durationText)
	} else {
		title = "Shortloop - Run Complete (with errors)"
		message = fmt.Sprintf("Run complete: %d published, %d failed in %s", published, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"shortloop", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublishFailed(ctx context.Context, itemTitle string, attempts int) error {
	if !n.errors {
		return nil
	}
	itemTitle = strings.TrimSpace(itemTitle)
	data := payload{
		title:   "Shortloop - Publish Failed",
		message: fmt.Sprintf("Gave up on %q after %d attempts; artifacts retained for the next run", itemTitle, attempts),
		tags:    []string{"shortloop", "publish", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalyticsApplied(ctx context.Context, sourcesUpdated, itemsMatched int) error {
	if !n.runSummary {
		return nil
	}
	data := payload{
		title:   "Shortloop - Feedback Applied",
		message: fmt.Sprintf("Analytics applied: %d sources updated from %d items", sourcesUpdated, itemsMatched),
		tags:    []string{"shortloop", "analytics", "applied"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Shortloop - Error",
		message:  builder.String(),
		tags:     []string{"shortloop", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shortloop - Test",
		message:  "Notification system test",
		tags:     []string{"shortloop", "test"},
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

func (noopService) NotifyRunStarted(context.Context, int, int) error                   { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, time.Duration) error  { return nil }
func (noopService) NotifyPublishFailed(context.Context, string, int) error             { return nil }
func (noopService) NotifyAnalyticsApplied(context.Context, int, int) error             { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
