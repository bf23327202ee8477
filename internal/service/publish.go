package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/coffee_order/internal/events"
	"github.com/Skotchmaster/coffee_order/internal/logging"
)

const publishTimeout = 5 * time.Second

// publish never fails the caller: the row is already committed.
func publish(ctx context.Context, p events.Publisher, topic string, key uint, event any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(ctx, topic, fmt.Sprint(key), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "key", key, "error", err)
	}
}
