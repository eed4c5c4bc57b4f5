// Package webhooks delivers completion notifications to configured
// endpoints.
package webhooks

import (
	"context"
	"net/http"
	"time"

	"github.com/robinjoseph08/golib/logger"

	"github.com/libsync/libsync/pkg/config"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Send calls every configured endpoint with its method and headers. A
// failed endpoint is logged and does not stop the rest from being
// called. Returns false if any endpoint failed or answered outside the
// 2xx range.
func Send(ctx context.Context, webhooks []config.Webhook) bool {
	log := logger.FromContext(ctx)
	ok := true

	for _, webhook := range webhooks {
		req, err := http.NewRequestWithContext(ctx, webhook.Method, webhook.URL, nil)
		if err != nil {
			log.Err(err).Error("invalid webhook", logger.Data{"url": webhook.URL})
			ok = false
			continue
		}
		for key, value := range webhook.Headers {
			req.Header.Set(key, value)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Err(err).Error("webhook call failed", logger.Data{"url": webhook.URL})
			ok = false
			continue
		}
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Warn("webhook answered with an error", logger.Data{
				"url":         webhook.URL,
				"status_code": resp.StatusCode,
			})
			ok = false
			continue
		}

		log.Info("webhook notified", logger.Data{"url": webhook.URL})
	}

	return ok
}
