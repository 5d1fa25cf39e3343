// Package notify pushes config-reload webhooks to the bot process so it
// can refresh cached guild configuration after admin edits.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"
	"github.com/wardenbot/warden/internal/version"
)

const reloadPath = "/internal/reload"

// BotNotifier delivers reload webhooks to the bot's internal HTTP endpoint.
type BotNotifier struct {
	client *req.Client
}

// New creates a notifier for the bot at baseURL. token, when non-empty, is
// sent as a bearer token on every webhook.
func New(baseURL, token string) *BotNotifier {
	client := req.C().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetCommonRetryCount(2).
		SetCommonRetryFixedInterval(time.Second).
		SetUserAgent("Warden/" + version.Version)

	if token != "" {
		client.SetCommonBearerAuthToken(token)
	}

	return &BotNotifier{client: client}
}

type reloadRequest struct {
	Guild string `json:"guild"`
}

// NotifyReload tells the bot that the guild's configuration changed.
func (n *BotNotifier) NotifyReload(ctx context.Context, guild string) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(&reloadRequest{Guild: guild}).
		Post(reloadPath)
	if err != nil {
		return fmt.Errorf("reload webhook: %w", err)
	}
	if resp.IsErrorState() {
		return fmt.Errorf("reload webhook: unexpected status %s", resp.Status)
	}
	return nil
}
