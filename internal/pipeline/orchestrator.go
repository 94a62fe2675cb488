package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/tradewatch/internal/ingest"
)

// Orchestrator supervises the two long-running loops of watch mode: the
// ingestor writing the record store and the reporter reading it.
type Orchestrator struct {
	ingestor *ingest.Ingestor
	reporter *Reporter
	logger   *slog.Logger
}

// NewOrchestrator wires the ingestor and reporter under one supervisor.
func NewOrchestrator(ingestor *ingest.Ingestor, reporter *Reporter, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		ingestor: ingestor,
		reporter: reporter,
		logger:   logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts both loops as concurrent goroutines using an errgroup. Each
// goroutine respects ctx cancellation. If either loop returns a non-context
// error, the errgroup cancels the shared context and Run returns that error;
// a cancellation-driven shutdown returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.InfoContext(ctx, "orchestrator starting")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.ingestor.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("ingestor: %w", err)
	})

	g.Go(func() error {
		err := o.reporter.RunLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("reporter: %w", err)
	})

	err := g.Wait()
	if err != nil {
		o.logger.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("orchestrator stopped cleanly")
	return nil
}
