package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/flowgrid/flowgrid/pkg/channels/gochannel"
	"github.com/flowgrid/flowgrid/pkg/channels/kafka"
	"github.com/flowgrid/flowgrid/pkg/eventbus"
)

// NewEventBus creates the event bus backing the run work queue. The default
// in-memory channel keeps dispatch inside one process; kafka spreads it
// across consumers.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel", "memory", "":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-memory pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
