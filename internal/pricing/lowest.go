// Package pricing holds the lowest-ask maintenance rules. It is not a
// running process: handlers call these against the current transaction so
// the index stays consistent with the raw event log under arbitrary
// insert/update/delete orderings.
//
// All comparisons are exact decimals; listing prices routinely exceed
// float64 range.
package pricing

import (
	"context"

	"NFTProjector/internal/store"

	"github.com/shopspring/decimal"
)

// LowestOnAdd reports whether a new listing at candidate lowers the series
// lowest ask: true when nothing is recorded yet or the candidate is cheaper.
func LowestOnAdd(current, candidate *decimal.Decimal) bool {
	if candidate == nil {
		return false
	}
	return current == nil || current.Cmp(*candidate) > 0
}

// AfterUpdate computes the lowest ask after the listing of tokenID changed
// to newPrice: the cheapest other listing strictly below newPrice if one
// exists, otherwise newPrice itself.
func AfterUpdate(ctx context.Context, tx store.Tx, contractID, seriesID, tokenID string, newPrice *decimal.Decimal) (*decimal.Decimal, error) {
	if newPrice == nil {
		return AfterRemoval(ctx, tx, contractID, seriesID, tokenID)
	}
	cheaper, err := tx.CheapestListed(ctx, store.CheapestQuery{
		ContractID:   contractID,
		SeriesID:     seriesID,
		ExcludeToken: tokenID,
		Below:        newPrice,
	})
	if err != nil {
		return nil, err
	}
	if cheaper != nil {
		return cheaper, nil
	}
	return newPrice, nil
}

// AfterRemoval computes the lowest ask once tokenID is no longer listed:
// the cheapest remaining listing, or nil when none are left.
func AfterRemoval(ctx context.Context, tx store.Tx, contractID, seriesID, tokenID string) (*decimal.Decimal, error) {
	return tx.CheapestListed(ctx, store.CheapestQuery{
		ContractID:   contractID,
		SeriesID:     seriesID,
		ExcludeToken: tokenID,
	})
}

// AfterSeriesPriceSet computes the lowest ask when the explicit series price
// is set to price. A non-nil price only becomes the lowest when no listed
// token undercuts it; clearing the price falls back to the cheapest listing.
func AfterSeriesPriceSet(ctx context.Context, tx store.Tx, contractID, seriesID string, price, currentLowest *decimal.Decimal) (*decimal.Decimal, error) {
	if price == nil {
		return tx.CheapestListed(ctx, store.CheapestQuery{
			ContractID: contractID,
			SeriesID:   seriesID,
		})
	}
	cheaper, err := tx.CheapestListed(ctx, store.CheapestQuery{
		ContractID: contractID,
		SeriesID:   seriesID,
		Below:      price,
	})
	if err != nil {
		return nil, err
	}
	if cheaper == nil {
		return price, nil
	}
	return currentLowest, nil
}
