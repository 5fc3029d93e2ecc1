package processor

import (
	"context"
	"encoding/json"
	"time"

	"NFTProjector/internal/event"
	"NFTProjector/internal/metadata"
	"NFTProjector/internal/model"
	"NFTProjector/internal/nearclient"
	"NFTProjector/internal/observability"
	"NFTProjector/internal/retry"
	"NFTProjector/internal/store"

	"github.com/rs/zerolog"
)

// ChainClient is the read-only chain RPC surface used for opportunistic
// metadata/royalty backfill on mint.
type ChainClient interface {
	NFTToken(ctx context.Context, contractID, tokenID string) (*nearclient.TokenView, error)
	NFTPayout(ctx context.Context, contractID, tokenID string) (model.Royalty, error)
}

// Deps is the dependency object constructed once at startup and passed by
// reference into the processor. No package-level mutable state.
type Deps struct {
	Store      store.Store
	Resolver   *metadata.Resolver
	Chain      ChainClient // nil disables mint backfill
	ChainRetry retry.Policy
	Log        zerolog.Logger
	Metrics    *observability.Metrics

	// Batches below this block height are acknowledged without processing.
	FirstBlockHeight int64
}

func (d *Deps) countRecompute(trigger string) {
	if d.Metrics != nil {
		d.Metrics.LowestPriceRecomputes.WithLabelValues(trigger).Inc()
	}
}

// EventContext carries the batch-level fields every handler needs alongside
// the decoded event.
type EventContext struct {
	ContractID  string // emitting contract of this event
	BlockHeight int64
	IssuedAt    int64 // unix ms, from the batch datetime
	Raw         json.RawMessage
}

// formattedEvent is the shape retained verbatim in activities.raw_msg.
type formattedEvent struct {
	ContractID  string          `json:"contract_id"`
	BlockHeight int64           `json:"block_height"`
	Datetime    time.Time       `json:"datetime"`
	EventType   string          `json:"event_type"`
	Params      json.RawMessage `json:"params"`
}

func newEventContext(env *event.Envelope, raw event.Raw) (*EventContext, error) {
	contractID := raw.ContractID
	if contractID == "" {
		contractID = env.ContractID
	}

	msg, err := json.Marshal(formattedEvent{
		ContractID:  contractID,
		BlockHeight: env.BlockHeight,
		Datetime:    env.Datetime,
		EventType:   raw.EventType,
		Params:      raw.Params,
	})
	if err != nil {
		return nil, err
	}

	return &EventContext{
		ContractID:  contractID,
		BlockHeight: env.BlockHeight,
		IssuedAt:    env.IssuedAt(),
		Raw:         msg,
	}, nil
}
