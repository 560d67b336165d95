// Package notify dispatches catalog announcements to the external
// social-posting service. Delivery is fire-and-forget: failures are
// logged and dropped, nothing is retried.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Poster talks to the social-posting HTTP API.
type Poster interface {
	Post(ctx context.Context, message, imageURL string) error
}

type SocialPoster struct {
	client *resty.Client
}

func NewSocialPoster(baseURL, authToken string) *SocialPoster {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(authToken).
		SetTimeout(10 * time.Second)
	return &SocialPoster{client: client}
}

func (p *SocialPoster) Post(ctx context.Context, message, imageURL string) error {
	body := map[string]string{"text": message}
	if imageURL != "" {
		body["image_url"] = imageURL
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/statuses")
	if err != nil {
		return fmt.Errorf("social post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("social post failed with status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}
