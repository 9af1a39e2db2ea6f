package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/firecms/cms/pkg/approval"
	"github.com/firecms/cms/pkg/eventbus"
	"github.com/firecms/cms/pkg/otelhelper"
	"github.com/firecms/cms/pkg/pagegen"
	"github.com/firecms/cms/pkg/persistence"
	"github.com/firecms/cms/pkg/services"
	cli "github.com/urfave/cli/v3"
)

// Runtime holds the stores, bus and services built from CommonFlags.
type Runtime struct {
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Generator   *pagegen.Generator
	Products    *services.Product
	Approvals   *services.Approval

	shutdownTracer otelhelper.ShutdownFunc
	logger         *slog.Logger
}

// NewRuntime opens everything the flags of command describe. On error, whatever was
// already opened is closed again.
func NewRuntime(ctx context.Context, logger *slog.Logger, command *cli.Command, serviceName string) (*Runtime, error) {
	tracer, shutdown, err := NewTracer(ctx, command.Bool("tracing"), serviceName)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{shutdownTracer: shutdown, logger: logger}

	rt.Persistence, err = NewPersistence(ctx, logger, command.String("database-url"), command.String("redis-url"))
	if err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}

	rt.EventBus, err = NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), serviceName, logger)
	if err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}

	rt.Generator = pagegen.NewGenerator(logger, command.String("site-root"))
	rt.Products = services.NewProduct(logger, rt.Persistence, rt.Generator, rt.EventBus, tracer)
	rt.Approvals = services.NewApproval(logger, rt.Persistence, approval.NewTracker(), rt.EventBus, tracer)

	return rt, nil
}

// Close releases the bus, the stores and the tracer, in that order.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error

	if r.EventBus != nil {
		if err := r.EventBus.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if r.Persistence != nil {
		if err := r.Persistence.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if r.shutdownTracer != nil {
		if err := r.shutdownTracer(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close runtime", "error", err)
	}

	return err
}
