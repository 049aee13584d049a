// Package consumer records every domain event published by the other services.
package consumer

import (
	"encoding/json"
	"fmt"

	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/metrics"
)

// Subjects covers every subject declared in pkg/events.
var Subjects = []string{
	"identity.>",
	"organization.>",
	"location.>",
	"menu.>",
}

type Consumer struct {
	sub   events.Subscriber
	queue string
}

// New builds a consumer that joins queue so replicas share the load.
func New(sub events.Subscriber, queue string) *Consumer {
	return &Consumer{sub: sub, queue: queue}
}

func (c *Consumer) Start() error {
	for _, subject := range Subjects {
		if err := c.sub.QueueSubscribe(subject, c.queue, Handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		logger.Info("Subscribed", "subject", subject, "queue", c.queue)
	}
	return nil
}

// Handle logs the event payload as structured fields.
func Handle(msg *events.Message) {
	var payload map[string]any
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		metrics.EventsConsumed.WithLabelValues(msg.Subject, "invalid").Inc()
		logger.Warn("Dropping malformed event", "subject", msg.Subject, "id", msg.ID, "error", err)
		return
	}

	args := make([]any, 0, 4+2*len(payload))
	args = append(args, "subject", msg.Subject, "id", msg.ID)
	for k, v := range payload {
		args = append(args, k, v)
	}
	logger.Info("Event received", args...)
	metrics.EventsConsumed.WithLabelValues(msg.Subject, "ok").Inc()
}
