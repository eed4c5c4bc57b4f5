package updater

import (
	"context"

	"github.com/robinjoseph08/golib/logger"

	"github.com/libsync/libsync/pkg/webhooks"
)

// NotifyWebhooks waits for the whole refresh graph and then calls the
// configured endpoints. An endpoint answering with an error is logged
// but does not fail the job; the refresh itself already finished.
func (svc *Service) NotifyWebhooks(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, WebhookDependencies(), prefix); err != nil {
		return err
	}

	if !webhooks.Send(ctx, svc.cfg.Webhooks) {
		logger.FromContext(ctx).Warn("not all webhooks were notified", logger.Data{"prefix": prefix})
	}

	return nil
}
