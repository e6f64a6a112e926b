package notify_webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/ci-runner/internal/domain"
)

// Client posts Slack/Mattermost style attachment payloads to an incoming
// webhook. In soft mode delivery failures are swallowed so a flaky chat
// integration never fails a pipeline run.
type Client struct {
	webhookURL string
	channel    string
	hc         *http.Client
	soft       bool
}

func New(webhookURL, channel string, timeout time.Duration) *Client {
	return newClient(webhookURL, channel, timeout, false)
}

func NewSoft(webhookURL, channel string, timeout time.Duration) *Client {
	return newClient(webhookURL, channel, timeout, true)
}

func newClient(webhookURL, channel string, timeout time.Duration, soft bool) *Client {
	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    channel,
		hc:         &http.Client{Transport: tr, Timeout: timeout},
		soft:       soft,
	}
}

type attachment struct {
	Fallback string `json:"fallback"`
	Color    string `json:"color"`
	Text     string `json:"text"`
}

type payload struct {
	Channel     string       `json:"channel,omitempty"`
	Attachments []attachment `json:"attachments"`
}

func (c *Client) Notify(ctx context.Context, outcome domain.Outcome, message string) error {
	body, err := json.Marshal(payload{
		Channel: c.channel,
		Attachments: []attachment{{
			Fallback: message,
			Color:    colorFor(outcome),
			Text:     message,
		}},
	})
	if err != nil {
		return err
	}

	op := func() error {
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}

		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if sec, _ := strconv.Atoi(ra); sec > 0 {
					select {
					case <-time.After(time.Duration(sec) * time.Second):
					case <-ctx.Done():
						return ctx.Err()
					}
					return fmt.Errorf("retry after due to 429")
				}
			}

			return fmt.Errorf("webhook 429")
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("webhook %s", resp.Status)
		}

		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("webhook %s", resp.Status))
		}

		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 5 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if c.soft {
			return nil
		}
		return err
	}
	return nil
}

func colorFor(o domain.Outcome) string {
	switch o {
	case domain.OutcomeSuccess:
		return "good"
	case domain.OutcomeUnstable:
		return "warning"
	default:
		return "danger"
	}
}
