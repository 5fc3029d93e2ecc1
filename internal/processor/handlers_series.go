package processor

import (
	"context"
	"fmt"

	"NFTProjector/internal/event"
	"NFTProjector/internal/model"
	"NFTProjector/internal/pricing"
	"NFTProjector/internal/store"
)

// handleCreateSeries inserts a new series with zero circulation. The series
// id is not required to be absent upstream, but duplicate create events for
// one series do not occur in practice; a conflicting insert aborts the batch.
func handleCreateSeries(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.CreateSeries)

	meta := e.Metadata
	if deps.Resolver != nil {
		resolved, err := deps.Resolver.Resolve(ctx, meta)
		if err != nil {
			return err
		}
		meta = resolved
	}

	series := &model.Series{
		ContractID:  ec.ContractID,
		SeriesID:    e.SeriesID,
		CreatorID:   strp(e.CreatorID),
		Price:       e.Price,
		LowestPrice: e.Price,
		Royalty:     e.Royalty,
		Metadata:    meta,
		UpdatedAt:   ec.IssuedAt,
	}
	if err := tx.InsertSeries(ctx, series); err != nil {
		return err
	}

	a := newActivity(ec, event.TagCreateSeries)
	a.SeriesID = strp(e.SeriesID)
	return tx.InsertActivity(ctx, a)
}

// handleSetSeriesPrice sets the explicit series price. The price becomes the
// lowest ask only when no listed token undercuts it; clearing the price
// falls back to the cheapest remaining listing.
func handleSetSeriesPrice(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.SetSeriesPrice)

	series, err := tx.GetSeries(ctx, ec.ContractID, e.SeriesID)
	if err != nil {
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	}

	lowest, err := pricing.AfterSeriesPriceSet(ctx, tx, ec.ContractID, e.SeriesID, e.Price, series.LowestPrice)
	if err != nil {
		return err
	}
	deps.countRecompute("set_series_price")

	series.Price = e.Price
	series.LowestPrice = lowest
	series.UpdatedAt = ec.IssuedAt
	if err := tx.UpdateSeries(ctx, series); err != nil {
		return err
	}

	a := newActivity(ec, event.TagSetSeriesPrice)
	a.SeriesID = strp(e.SeriesID)
	a.Price = e.Price
	return tx.InsertActivity(ctx, a)
}

// handleSetSeriesNonMintable closes the series for minting and clears its
// explicit price.
func handleSetSeriesNonMintable(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.SetSeriesNonMintable)

	series, err := tx.GetSeries(ctx, ec.ContractID, e.SeriesID)
	if err != nil {
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	}

	series.NonMintable = true
	series.Price = nil
	if err := tx.UpdateSeries(ctx, series); err != nil {
		return err
	}

	a := newActivity(ec, event.TagSetSeriesNonMintable)
	a.SeriesID = strp(e.SeriesID)
	return tx.InsertActivity(ctx, a)
}

// handleDecreaseSeriesCopies lowers the declared edition count on the series
// and on every minted token, and propagates the non-mintable flag.
func handleDecreaseSeriesCopies(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.DecreaseSeriesCopies)

	series, err := tx.GetSeries(ctx, ec.ContractID, e.SeriesID)
	if err != nil {
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	}

	if series.Metadata == nil {
		series.Metadata = model.Metadata{}
	}
	series.Metadata.SetCopies(e.Copies)
	series.NonMintable = e.NonMintable
	if err := tx.UpdateSeries(ctx, series); err != nil {
		return err
	}

	if _, err := tx.UpdateTokensCopies(ctx, ec.ContractID, e.SeriesID, e.Copies); err != nil {
		return err
	}

	a := newActivity(ec, event.TagDecreaseSeriesCopies)
	a.SeriesID = strp(e.SeriesID)
	return tx.InsertActivity(ctx, a)
}
