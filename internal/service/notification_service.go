package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/config"
	"github.com/spec-kit/locate-ticket-service/internal/events"
)

// NotificationService emits notifications for ingestion events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCleared, n.handleTicketCleared)
	n.dispatcher.Subscribe(events.EventTicketToggled, n.handleTicketToggled)
}

func (n *NotificationService) handleTicketCleared(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCleared", zap.String("ticket_number", event.TicketNumber), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketToggled(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketPerformedToggled", zap.String("ticket_number", event.TicketNumber), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_number", event.TicketNumber),
		zap.String("event_type", string(event.Type)))
}
