package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pushoverEndpoint = "https://api.pushover.net/1/messages.json"

// Pushover posts events to the Pushover message API. Construct it only when
// both credentials are present; callers resolve that capability once at
// startup rather than checking per call.
type Pushover struct {
	token    string
	user     string
	endpoint string
	client   *http.Client
}

func NewPushover(token, user string) (*Pushover, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(user) == "" {
		return nil, fmt.Errorf("pushover: missing token or user key")
	}
	return &Pushover{
		token:    token,
		user:     user,
		endpoint: pushoverEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *Pushover) Notify(ctx context.Context, ev Event) error {
	form := url.Values{
		"token":   {p.token},
		"user":    {p.user},
		"message": {ev.Message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("pushover: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushover: unexpected status %s", resp.Status)
	}

	log.Printf("[Pushover] %s event delivered", ev.Kind)
	return nil
}
