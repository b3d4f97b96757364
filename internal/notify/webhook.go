// Package notify pushes committed audit events to external consumers.
package notify

import (
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/guonaihong/gout"
	"go.uber.org/zap"

	"github.com/quaddelta/catalog/internal/catalog"
	"github.com/quaddelta/catalog/internal/domain"
)

// WebhookNotifier POSTs every committed audit entry to a configured URL.
// Delivery is fire-and-forget: failures are logged and never retried, and a
// slow endpoint never delays the mutation that triggered the event.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{url: url, timeout: timeout}
}

// Subscribe attaches the notifier to the audit topic. Callbacks run
// asynchronously so publishers never block on delivery.
func (n *WebhookNotifier) Subscribe(bus EventBus.Bus) error {
	return bus.SubscribeAsync(catalog.TopicAudit, n.push, false)
}

func (n *WebhookNotifier) push(entry *domain.AuditLog) {
	if n.url == "" || entry == nil {
		return
	}

	var code int
	err := gout.POST(n.url).
		SetJSON(entry).
		SetTimeout(n.timeout).
		Code(&code).
		Do()
	if err != nil {
		zap.L().Warn("audit webhook delivery failed",
			zap.String("url", n.url),
			zap.Int64("entry_id", entry.ID),
			zap.Error(err))
		return
	}
	if code >= 300 {
		zap.L().Warn("audit webhook rejected",
			zap.String("url", n.url),
			zap.Int64("entry_id", entry.ID),
			zap.Int("status", code))
	}
}
