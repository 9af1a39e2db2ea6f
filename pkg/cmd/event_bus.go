// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/firecms/cms/pkg/channels/gochannel"
	"github.com/firecms/cms/pkg/channels/kafka"
	"github.com/firecms/cms/pkg/eventbus"
	"github.com/firecms/cms/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

// NewEventBus creates the bus for provider: "memory" (the default) or "kafka", whose
// brokers come from a comma separated list.
func NewEventBus(provider, brokers, serviceName string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "memory", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(brokers), serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}

// NewTracer exports spans over OTLP/HTTP when enabled; otherwise it returns the
// global tracer and a no-op shutdown.
func NewTracer(ctx context.Context, enabled bool, serviceName string) (trace.Tracer, otelhelper.ShutdownFunc, error) {
	if !enabled {
		return otelhelper.GlobalTracer(serviceName), func(context.Context) error { return nil }, nil
	}

	return otelhelper.NewTracer(ctx, serviceName)
}
