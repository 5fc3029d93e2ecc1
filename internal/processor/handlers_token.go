package processor

import (
	"context"
	"errors"
	"fmt"

	"NFTProjector/internal/event"
	"NFTProjector/internal/metadata"
	"NFTProjector/internal/model"
	"NFTProjector/internal/retry"
	"NFTProjector/internal/store"
)

// handleMint inserts the new token and bumps series circulation. When a chain
// client is configured the token row is backfilled with on-chain metadata and
// royalty; the batch datetime can lag the chain, so the view call is retried
// until the node has the token.
func handleMint(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.Mint)

	token := &model.Token{
		ContractID: ec.ContractID,
		TokenID:    e.TokenID,
		SeriesID:   e.SeriesID,
		EditionID:  e.EditionID,
		OwnerID:    strp(e.ReceiverID),
		Price:      nil,
	}

	if deps.Chain != nil {
		if err := backfillToken(ctx, deps, token); err != nil {
			return fmt.Errorf("token %s backfill: %w", e.TokenID, err)
		}
	}

	if err := tx.InsertToken(ctx, token); err != nil {
		return err
	}

	series, err := tx.GetSeries(ctx, ec.ContractID, e.SeriesID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Mint for a series created before the height cutoff. Record a
		// closed series so circulation queries still answer.
		series = &model.Series{
			ContractID:    ec.ContractID,
			SeriesID:      e.SeriesID,
			Royalty:       token.Royalty,
			Metadata:      token.Metadata,
			InCirculation: 1,
			TotalMint:     1,
			NonMintable:   true,
			UpdatedAt:     ec.IssuedAt,
		}
		if err := tx.InsertSeries(ctx, series); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	default:
		series.InCirculation++
		series.TotalMint++
		if copies, ok := series.Metadata.Copies(); ok && series.TotalMint >= copies {
			series.NonMintable = true
		}
		if e.Price != nil {
			series.UpdatedAt = ec.IssuedAt
		}
		if err := tx.UpdateSeries(ctx, series); err != nil {
			return err
		}
	}

	a := newActivity(ec, event.TagTransfer)
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.To = strp(e.ReceiverID)
	a.Price = e.Price
	if e.Price != nil {
		// Primary sale: proceeds flow from the creator's series.
		if series.CreatorID != nil {
			a.From = series.CreatorID
		} else {
			a.From = strp(ec.ContractID)
		}
	}
	return tx.InsertActivity(ctx, a)
}

// backfillToken fetches the on-chain token view and royalty split into the
// row being inserted. A broken metadata reference is a data error and is not
// retried.
func backfillToken(ctx context.Context, deps *Deps, token *model.Token) error {
	return retry.Do(ctx, deps.ChainRetry, func(ctx context.Context) error {
		view, err := deps.Chain.NFTToken(ctx, token.ContractID, token.TokenID)
		if err != nil {
			return err
		}

		meta := view.Metadata
		if deps.Resolver != nil {
			resolved, rerr := deps.Resolver.Resolve(ctx, meta)
			if rerr != nil {
				if errors.Is(rerr, metadata.ErrBadReference) {
					return retry.Terminal(rerr)
				}
				return rerr
			}
			meta = resolved
		}
		token.Metadata = meta

		royalty, err := deps.Chain.NFTPayout(ctx, token.ContractID, token.TokenID)
		if err != nil {
			return err
		}
		token.Royalty = royalty
		return nil
	})
}

// handleBurn nulls the owner of the token and decrements circulation. The row
// stays so the activity feed and provenance queries keep resolving.
func handleBurn(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.Burn)

	token, err := tx.GetTokenOwned(ctx, ec.ContractID, e.TokenID, e.SenderID)
	if err != nil {
		return fmt.Errorf("token %s owned by %s: %w", e.TokenID, e.SenderID, err)
	}

	token.OwnerID = nil
	token.ClearListing()
	if err := tx.UpdateToken(ctx, token); err != nil {
		return err
	}

	series, err := tx.GetSeries(ctx, ec.ContractID, e.SeriesID)
	if err != nil {
		return fmt.Errorf("series %s: %w", e.SeriesID, err)
	}
	series.InCirculation--
	if err := tx.UpdateSeries(ctx, series); err != nil {
		return err
	}

	a := newActivity(ec, event.TagTransfer)
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.From = strp(e.SenderID)
	return tx.InsertActivity(ctx, a)
}

// handleTransfer moves ownership and clears any stale listing the previous
// owner left behind.
func handleTransfer(ctx context.Context, deps *Deps, tx store.Tx, ec *EventContext, evt event.Event) error {
	e := evt.(*event.Transfer)

	token, err := tx.GetTokenOwned(ctx, ec.ContractID, e.TokenID, e.SenderID)
	if err != nil {
		return fmt.Errorf("token %s owned by %s: %w", e.TokenID, e.SenderID, err)
	}

	token.OwnerID = strp(e.ReceiverID)
	token.ClearListing()
	if err := tx.UpdateToken(ctx, token); err != nil {
		return err
	}

	a := newActivity(ec, event.TagTransfer)
	a.TokenID = strp(e.TokenID)
	a.SeriesID = strp(e.SeriesID)
	a.From = strp(e.SenderID)
	a.To = strp(e.ReceiverID)
	return tx.InsertActivity(ctx, a)
}
