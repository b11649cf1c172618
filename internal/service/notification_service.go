package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskworks/service-desk/internal/config"
	"github.com/deskworks/service-desk/internal/events"
	"github.com/deskworks/service-desk/internal/notify"
)

// Mailer sends a rendered email.
type Mailer interface {
	Send(to []string, msg notify.Message) error
}

// NotificationService turns lifecycle events into outbound notifications.
type NotificationService struct {
	logger   *zap.Logger
	cfg      config.NotificationConfig
	renderer *notify.Renderer
	mailer   Mailer
}

// NewNotificationService creates the service. Without a mailer or
// recipients, email delivery is only logged.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig, renderer *notify.Renderer, mailer Mailer) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = notify.NewRenderer(time.UTC)
	}
	return &NotificationService{logger: logger, cfg: cfg, renderer: renderer, mailer: mailer}
}

// Handle delivers the notifications for one event. Unknown event types
// are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventEntryCreated:
		n.logger.Info("EntryCreated", eventFields(event)...)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventEntryStatusChanged:
		n.logger.Info("EntryStatusChanged", eventFields(event)...)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventVisitAssigned:
		n.logger.Info("VisitAssigned", eventFields(event)...)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventVisitUnchanged:
		n.logger.Info("VisitUnchanged", eventFields(event)...)
		return nil
	case events.EventTimelineNoteAdded:
		n.logger.Info("TimelineNoteAdded", eventFields(event)...)
	default:
		return nil
	}
	return n.sendEmail(event)
}

func eventFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("entry_id", event.EntryID),
		zap.String("public_id", event.PublicID),
		zap.String("kind", string(event.Kind)),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Any("payload", event.Payload),
	}
}

func (n *NotificationService) sendEmail(event events.Event) error {
	msg, ok, err := n.renderer.Render(event)
	if err != nil || !ok {
		return err
	}
	if n.mailer == nil || len(n.cfg.EmailTo) == 0 {
		n.logger.Debug("email delivery disabled",
			zap.String("event_type", string(event.Type)),
			zap.String("subject", msg.Subject))
		return nil
	}
	if err := n.mailer.Send(n.cfg.EmailTo, msg); err != nil {
		return err
	}
	n.logger.Debug("email sent",
		zap.String("event_type", string(event.Type)),
		zap.Strings("to", n.cfg.EmailTo))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("entry_id", event.EntryID),
		zap.String("event_type", string(event.Type)))
}
