package processor

import (
	"context"

	"NFTProjector/internal/event"
	"NFTProjector/internal/model"
	"NFTProjector/internal/store"

	"github.com/google/uuid"
)

// Handler encodes one state transition of the domain model. It runs inside
// the batch transaction; any error aborts the whole batch.
type Handler func(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error

// Registry maps event kinds to handlers. Kinds absent from the registry are
// skipped, which keeps the processor forward-compatible with future tags.
type Registry map[event.Kind]Handler

func NewRegistry() Registry {
	return Registry{
		event.KindCreateSeries:         handleCreateSeries,
		event.KindMint:                 handleMint,
		event.KindBurn:                 handleBurn,
		event.KindTransfer:             handleTransfer,
		event.KindSetSeriesPrice:       handleSetSeriesPrice,
		event.KindSetSeriesNonMintable: handleSetSeriesNonMintable,
		event.KindDecreaseSeriesCopies: handleDecreaseSeriesCopies,
		event.KindAddMarketData:        handleAddMarketData,
		event.KindUpdateMarketData:     handleUpdateMarketData,
		event.KindDeleteMarketData:     handleDeleteMarketData,
		event.KindResolvePurchase:      handleResolvePurchase,
		event.KindResolvePurchaseFail:  handleResolvePurchaseFail,
	}
}

func strp(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// newActivity prefills the append-only log record every handler writes.
func newActivity(ec *EventContext, eventType string) *model.Activity {
	return &model.Activity{
		ID:         uuid.New(),
		ContractID: ec.ContractID,
		Type:       eventType,
		IssuedAt:   ec.IssuedAt,
		Raw:        ec.Raw,
	}
}
