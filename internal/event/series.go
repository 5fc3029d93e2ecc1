package event

import (
	"NFTProjector/internal/model"

	"github.com/shopspring/decimal"
)

// CreateSeries inserts a new series with zero circulation. If the metadata
// carries a content reference, it is resolved before the insert.
type CreateSeries struct {
	SeriesID  string
	CreatorID string
	Price     *decimal.Decimal
	Metadata  model.Metadata
	Royalty   model.Royalty
}

func (*CreateSeries) Kind() Kind { return KindCreateSeries }

// SetSeriesPrice sets the explicit series price (nil clears it).
type SetSeriesPrice struct {
	SeriesID string
	Price    *decimal.Decimal
}

func (*SetSeriesPrice) Kind() Kind { return KindSetSeriesPrice }

// SetSeriesNonMintable closes a series for further minting and clears its
// explicit price.
type SetSeriesNonMintable struct {
	SeriesID string
}

func (*SetSeriesNonMintable) Kind() Kind { return KindSetSeriesNonMintable }

// DecreaseSeriesCopies lowers the declared edition count of a series and of
// every token already minted from it.
type DecreaseSeriesCopies struct {
	SeriesID    string
	Copies      int64
	NonMintable bool
}

func (*DecreaseSeriesCopies) Kind() Kind { return KindDecreaseSeriesCopies }
