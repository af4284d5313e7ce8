package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/sales-tracker/internal/config"
	"github.com/spec-kit/sales-tracker/internal/events"
)

// NotificationService forwards sale events to the configured outgoing
// webhook. Delivery is best-effort: failures are logged and never
// propagate back into ingestion.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.Timeout()},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSaleRecorded, n.handleSaleRecorded)
	n.dispatcher.Subscribe(events.EventSaleVerified, n.handleSaleVerified)
}

func (n *NotificationService) handleSaleRecorded(ctx context.Context, event events.Event) error {
	n.logger.Info("SaleRecorded", zap.String("sale_id", event.EntityID))
	n.sendWebhook(ctx, "new_sale", event)
	return nil
}

func (n *NotificationService) handleSaleVerified(ctx context.Context, event events.Event) error {
	n.logger.Info("SaleVerified", zap.String("sale_id", event.EntityID))
	n.sendWebhook(ctx, "sale_verified", event)
	return nil
}

func (n *NotificationService) sendWebhook(ctx context.Context, eventName string, event events.Event) {
	if n.cfg.WebhookURL == "" {
		return
	}

	body, err := json.Marshal(map[string]any{
		"event":   eventName,
		"sale_id": event.EntityID,
		"data":    event.Payload,
	})
	if err != nil {
		n.logger.Error("marshal outgoing webhook", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("build outgoing webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("outgoing webhook failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("outgoing webhook rejected",
			zap.String("event", eventName),
			zap.Error(fmt.Errorf("status %d", resp.StatusCode)))
		return
	}
	n.logger.Debug("outgoing webhook delivered", zap.String("event", eventName))
}
