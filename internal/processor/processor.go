// Package processor applies one queue message — all events of one block —
// as a single store transaction. Events apply in array order; any handler
// failure rolls the whole batch back and surfaces to the consumer, which
// must not acknowledge the message.
package processor

import (
	"context"
	"fmt"
	"time"

	"NFTProjector/internal/event"
)

type Processor struct {
	deps     *Deps
	registry Registry
}

func New(deps *Deps) *Processor {
	return &Processor{
		deps:     deps,
		registry: NewRegistry(),
	}
}

// Process applies one envelope atomically. A nil return means the batch is
// committed (or skipped by the height cutoff) and may be acknowledged.
func (p *Processor) Process(ctx context.Context, env *event.Envelope) error {
	log := p.deps.Log.With().
		Int64("block_height", env.BlockHeight).
		Str("contract_id", env.ContractID).
		Logger()

	if env.BlockHeight < p.deps.FirstBlockHeight {
		log.Info().Int64("cutoff", p.deps.FirstBlockHeight).Msg("batch below cutoff, skipped")
		if p.deps.Metrics != nil {
			p.deps.Metrics.BatchesSkipped.Inc()
		}
		return nil
	}

	if p.deps.Metrics != nil {
		p.deps.Metrics.BatchInFlight.Inc()
		defer p.deps.Metrics.BatchInFlight.Dec()
	}
	start := time.Now()

	tx, err := p.deps.Store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("block %d: %w", env.BlockHeight, err)
	}

	for i, raw := range env.Events {
		evt, err := event.Decode(raw)
		if err != nil {
			tx.Rollback()
			p.countFailure(raw.EventType)
			return fmt.Errorf("block %d event %d: %w", env.BlockHeight, i, err)
		}

		kind := evt.Kind()
		handler, ok := p.registry[kind]
		if !ok {
			log.Debug().Str("event_type", raw.EventType).Msg("unrecognized event, skipped")
			if p.deps.Metrics != nil {
				p.deps.Metrics.EventsIgnored.Inc()
			}
			continue
		}

		ec, err := newEventContext(env, raw)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("block %d event %d (%s): %w", env.BlockHeight, i, kind, err)
		}

		log.Info().Str("event_type", kind.String()).Int("index", i).Msg("processing event")

		handlerStart := time.Now()
		if err := handler(ctx, p.deps, tx, ec, evt); err != nil {
			tx.Rollback()
			p.countFailure(kind.String())
			return fmt.Errorf("block %d event %d (%s): %w", env.BlockHeight, i, kind, err)
		}

		if p.deps.Metrics != nil {
			p.deps.Metrics.EventsApplied.WithLabelValues(kind.String()).Inc()
			p.deps.Metrics.HandlerDuration.WithLabelValues(kind.String()).Observe(time.Since(handlerStart).Seconds())
			p.deps.Metrics.ActivitiesWritten.Inc()
		}
	}

	if err := tx.Commit(); err != nil {
		p.countFailure("commit")
		return fmt.Errorf("block %d commit: %w", env.BlockHeight, err)
	}

	if p.deps.Metrics != nil {
		p.deps.Metrics.BatchesProcessed.Inc()
		p.deps.Metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}
	log.Info().Int("events", len(env.Events)).Dur("took", time.Since(start)).Msg("batch committed")
	return nil
}

func (p *Processor) countFailure(eventType string) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.BatchesFailed.Inc()
		p.deps.Metrics.HandlerFailures.WithLabelValues(eventType).Inc()
	}
}
