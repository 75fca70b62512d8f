package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/logger"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Sender delivers rendered messages. Real SMS and mail transports live
// outside this service.
type Sender interface {
	SendSMS(ctx context.Context, m SMS) error
	SendEmail(ctx context.Context, m Email) error
}

// Claimer de-duplicates redelivered events; *redisx.Deduper implements it.
type Claimer interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// Dispatcher consumes OrderPlaced events and hands the rendered customer SMS
// and admin email to a Sender.
type Dispatcher struct {
	Sender   Sender
	Dedup    Claimer // optional
	SenderID string
	Log      *zap.Logger
}

// HandleOrderPlaced is a kafka.Handler. A nil return commits the offset.
func (d *Dispatcher) HandleOrderPlaced(ctx context.Context, m kafka.Message) error {
	log := logger.OrNop(d.Log).Named("notifier")

	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message; committing it is the only way past it
		log.Error("undecodable envelope dropped", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	if d.Dedup != nil {
		first, err := d.Dedup.Claim(ctx, env.EventID)
		if err != nil {
			log.Warn("dedup unavailable, processing anyway", zap.String("event_id", env.EventID), zap.Error(err))
		} else if !first {
			log.Debug("duplicate event skipped", zap.String("event_id", env.EventID))
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		log.Error("undecodable payload dropped", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	if err := d.send(ctx, p); err != nil {
		if d.Dedup != nil {
			if rerr := d.Dedup.Release(ctx, env.EventID); rerr != nil {
				log.Warn("dedup release failed", zap.String("event_id", env.EventID), zap.Error(rerr))
			}
		}
		return fmt.Errorf("order %d: %w", p.OrderID, err)
	}
	log.Info("order notifications sent", zap.Int64("order_id", p.OrderID), zap.String("event_id", env.EventID))
	return nil
}

func (d *Dispatcher) send(ctx context.Context, p orders.OrderPlacedPayload) error {
	var errs []error
	if p.CustomerPhone != "" {
		if err := d.Sender.SendSMS(ctx, RenderSMS(p, d.SenderID)); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}
	if p.AdminEmail != "" {
		if err := d.Sender.SendEmail(ctx, RenderAdminEmail(p)); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) SendSMS(_ context.Context, m SMS) error {
	logger.OrNop(s.Log).Info("sms", zap.String("from", m.SenderID), zap.String("to", m.To), zap.String("body", m.Body))
	return nil
}

func (s *LogSender) SendEmail(_ context.Context, m Email) error {
	logger.OrNop(s.Log).Info("email", zap.Strings("to", m.To), zap.String("subject", m.Subject), zap.String("body", m.Body))
	return nil
}
