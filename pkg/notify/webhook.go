package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
)

const webhookTimeout = 10 * time.Second

// webhookNotifier posts a JSON body to a webhook URL. An empty URL means the
// channel is disabled and Send is a silent no-op.
type webhookNotifier struct {
	name   string
	url    string
	client *http.Client
	// render maps an event to the channel-specific JSON body.
	render func(ev Event) any
}

func (w *webhookNotifier) Name() string { return w.name }

func (w *webhookNotifier) Send(ctx context.Context, ev Event) error {
	if w.url == "" {
		logging.Debugf("%s disabled (no webhook URL)", w.name)
		return nil
	}

	body, err := json.Marshal(w.render(ev))
	if err != nil {
		return fmt.Errorf("%s: encoding payload: %w", w.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", w.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", w.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: webhook returned %s", w.name, resp.Status)
	}
	return nil
}

// NewSlack builds a Slack webhook notifier. Empty url disables it.
func NewSlack(url string) Notifier {
	return &webhookNotifier{
		name:   "slack",
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
		render: func(ev Event) any {
			text := fmt.Sprintf("*Index alert:* *%s* (%.2f)\nReason: %s\n@ %s",
				ev.Decision, ev.Confidence, ev.TopReason(), ev.TS.Format(time.RFC3339))
			return map[string]string{"text": text}
		},
	}
}

// SlackFromEnv reads SLACK_WEBHOOK_URL.
func SlackFromEnv() Notifier { return NewSlack(os.Getenv("SLACK_WEBHOOK_URL")) }

// NewDiscord builds a Discord webhook notifier. Empty url disables it.
func NewDiscord(url string) Notifier {
	return &webhookNotifier{
		name:   "discord",
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
		render: func(ev Event) any {
			content := fmt.Sprintf("**Index alert:** **%s** (%.2f)\nReason: %s\n%s",
				ev.Decision, ev.Confidence, ev.TopReason(), ev.TS.Format(time.RFC3339))
			return map[string]string{"content": content}
		},
	}
}

// DiscordFromEnv reads DISCORD_WEBHOOK_URL.
func DiscordFromEnv() Notifier { return NewDiscord(os.Getenv("DISCORD_WEBHOOK_URL")) }
