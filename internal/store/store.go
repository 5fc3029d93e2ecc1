// Package store defines the projection store contract used by the event
// handlers. The production implementation lives in store/postgres; an
// in-memory implementation for handler tests lives in store/storetest.
package store

import (
	"context"
	"errors"

	"NFTProjector/internal/model"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an entity the event stream expects to exist
// is missing. Handlers treat it as a data-integrity failure that aborts the
// whole batch.
var ErrNotFound = errors.New("store: not found")

// Store owns the connection; each batch gets its own transactional scope.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic multi-write scope. Every exit path must end in exactly
// one Commit or Rollback.
type Tx interface {
	GetSeries(ctx context.Context, contractID, seriesID string) (*model.Series, error)
	InsertSeries(ctx context.Context, s *model.Series) error
	UpdateSeries(ctx context.Context, s *model.Series) error

	GetToken(ctx context.Context, contractID, tokenID string) (*model.Token, error)
	// GetTokenOwned additionally requires the current owner to match;
	// a token held by someone else reads as ErrNotFound.
	GetTokenOwned(ctx context.Context, contractID, tokenID, ownerID string) (*model.Token, error)
	InsertToken(ctx context.Context, t *model.Token) error
	UpdateToken(ctx context.Context, t *model.Token) error
	// UpdateTokensCopies rewrites metadata.copies on every token of a series
	// and returns the number of rows touched.
	UpdateTokensCopies(ctx context.Context, contractID, seriesID string, copies int64) (int64, error)

	// CheapestListed answers the lowest-ask index query: the single cheapest
	// listed token of a series, ascending by price, limit one. Returns nil
	// when nothing matches.
	CheapestListed(ctx context.Context, q CheapestQuery) (*decimal.Decimal, error)

	InsertActivity(ctx context.Context, a *model.Activity) error

	Commit() error
	Rollback() error
}

// CheapestQuery narrows the lowest-ask scan. ExcludeToken drops the token
// being mutated; Below is a strict upper bound on candidate prices.
type CheapestQuery struct {
	ContractID   string
	SeriesID     string
	ExcludeToken string
	Below        *decimal.Decimal
}
