package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/PLManuel/Mitikas-sub000/internal/kafka"
	"github.com/PLManuel/Mitikas-sub000/internal/orders"
	"github.com/PLManuel/Mitikas-sub000/internal/redisx"
)

// Service keeps the order-status cache warm from the status-change stream,
// so polling clients rarely touch the database.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	// dedup by event id; consumer groups redeliver on rebalance
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	body, _ := json.Marshal(map[string]any{"status": p.To, "updated_at": time.Now().UTC()})
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		return err
	}
	slog.Info("status cache refreshed", "order_id", p.OrderID, "status", p.To)
	return nil
}
