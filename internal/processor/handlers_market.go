package processor

import (
	"context"
	"errors"
	"fmt"

	"NFTProjector/internal/event"
	"NFTProjector/internal/pricing"
	"NFTProjector/internal/store"
)

// Marketplace events reference tokens of the NFT contract, so every lookup
// here keys on the event's nft_contract_id rather than the envelope contract.
// The series row may predate the projector's height cutoff; a missing series
// is tolerated and only the token row is updated.

func handleAddMarketData(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.AddMarketData)

	token, err := tx.GetTokenOwned(ctx, e.NFTContractID, e.TokenID, e.OwnerID)
	if err != nil {
		return fmt.Errorf("token %s owned by %s: %w", e.TokenID, e.OwnerID, err)
	}

	token.Price = e.Price
	token.ApprovalID = &e.ApprovalID
	token.FtTokenID = strp(e.FtTokenID)
	if err := tx.UpdateToken(ctx, token); err != nil {
		return err
	}

	series, err := tx.GetSeries(ctx, e.NFTContractID, e.SeriesID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	default:
		if pricing.LowestOnAdd(series.LowestPrice, e.Price) {
			series.LowestPrice = e.Price
			series.UpdatedAt = ec.IssuedAt
			if err := tx.UpdateSeries(ctx, series); err != nil {
				return err
			}
			deps.countRecompute("add_market_data")
		}
	}

	a := newActivity(ec, event.TagAddMarketData)
	a.ContractID = e.NFTContractID
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.From = strp(e.OwnerID)
	a.Price = e.Price
	a.FtTokenID = strp(e.FtTokenID)
	return tx.InsertActivity(ctx, a)
}

func handleUpdateMarketData(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.UpdateMarketData)

	token, err := tx.GetTokenOwned(ctx, e.NFTContractID, e.TokenID, e.OwnerID)
	if err != nil {
		return fmt.Errorf("token %s owned by %s: %w", e.TokenID, e.OwnerID, err)
	}

	token.Price = e.Price
	token.FtTokenID = strp(e.FtTokenID)
	if err := tx.UpdateToken(ctx, token); err != nil {
		return err
	}

	series, err := tx.GetSeries(ctx, e.NFTContractID, e.SeriesID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	default:
		lowest, err := pricing.AfterUpdate(ctx, tx, e.NFTContractID, e.SeriesID, e.TokenID, e.Price)
		if err != nil {
			return err
		}
		series.LowestPrice = lowest
		series.UpdatedAt = ec.IssuedAt
		if err := tx.UpdateSeries(ctx, series); err != nil {
			return err
		}
		deps.countRecompute("update_market_data")
	}

	a := newActivity(ec, event.TagUpdateMarketData)
	a.ContractID = e.NFTContractID
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.From = strp(e.OwnerID)
	a.Price = e.Price
	a.FtTokenID = strp(e.FtTokenID)
	return tx.InsertActivity(ctx, a)
}

func handleDeleteMarketData(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.DeleteMarketData)

	token, err := tx.GetTokenOwned(ctx, e.NFTContractID, e.TokenID, e.OwnerID)
	if err != nil {
		return fmt.Errorf("token %s owned by %s: %w", e.TokenID, e.OwnerID, err)
	}

	token.ClearListing()
	if err := tx.UpdateToken(ctx, token); err != nil {
		return err
	}

	series, err := tx.GetSeries(ctx, e.NFTContractID, e.SeriesID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	default:
		lowest, err := pricing.AfterRemoval(ctx, tx, e.NFTContractID, e.SeriesID, e.TokenID)
		if err != nil {
			return err
		}
		series.LowestPrice = lowest
		if err := tx.UpdateSeries(ctx, series); err != nil {
			return err
		}
		deps.countRecompute("delete_market_data")
	}

	a := newActivity(ec, event.TagDeleteMarketData)
	a.ContractID = e.NFTContractID
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.From = strp(e.OwnerID)
	return tx.InsertActivity(ctx, a)
}

// handleResolvePurchase records the completed sale. The matching ownership
// change arrives as its own transfer event in the same batch, so only the
// series timestamp and the activity log move here.
func handleResolvePurchase(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.ResolvePurchase)

	series, err := tx.GetSeries(ctx, e.NFTContractID, e.SeriesID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	default:
		series.UpdatedAt = ec.IssuedAt
		if err := tx.UpdateSeries(ctx, series); err != nil {
			return err
		}
	}

	a := newActivity(ec, event.TagResolvePurchase)
	a.ContractID = e.NFTContractID
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.From = strp(e.OwnerID)
	a.To = strp(e.BuyerID)
	a.Price = e.Price
	a.FtTokenID = strp(e.FtTokenID)
	return tx.InsertActivity(ctx, a)
}

// handleResolvePurchaseFail clears the listing the failed trade consumed on
// the marketplace side.
func handleResolvePurchaseFail(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.ResolvePurchaseFail)

	token, err := tx.GetTokenOwned(ctx, e.NFTContractID, e.TokenID, e.OwnerID)
	if err != nil {
		return fmt.Errorf("token %s owned by %s: %w", e.TokenID, e.OwnerID, err)
	}

	token.ClearListing()
	if err := tx.UpdateToken(ctx, token); err != nil {
		return err
	}

	a := newActivity(ec, event.TagResolvePurchaseFail)
	a.ContractID = e.NFTContractID
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.From = strp(e.OwnerID)
	a.To = strp(e.BuyerID)
	return tx.InsertActivity(ctx, a)
}
