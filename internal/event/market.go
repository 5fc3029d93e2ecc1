package event

import (
	"github.com/shopspring/decimal"
)

// Marketplace events are emitted by the marketplace contract but mutate
// token rows of the NFT contract, so they carry NFTContractID separately
// from the envelope-level contract id.

// AddMarketData lists a token for sale.
type AddMarketData struct {
	NFTContractID string
	TokenID       string
	SeriesID      string
	EditionID     string
	OwnerID       string
	FtTokenID     string
	ApprovalID    int64
	Price         *decimal.Decimal
}

func (*AddMarketData) Kind() Kind { return KindAddMarketData }

// UpdateMarketData changes the listing price of an already-listed token.
type UpdateMarketData struct {
	NFTContractID string
	TokenID       string
	SeriesID      string
	EditionID     string
	OwnerID       string
	FtTokenID     string
	Price         *decimal.Decimal
}

func (*UpdateMarketData) Kind() Kind { return KindUpdateMarketData }

// DeleteMarketData removes a listing.
type DeleteMarketData struct {
	NFTContractID string
	TokenID       string
	SeriesID      string
	EditionID     string
	OwnerID       string
}

func (*DeleteMarketData) Kind() Kind { return KindDeleteMarketData }

// ResolvePurchase records a completed sale. Ownership change arrives as a
// separate transfer event; this one only touches the series and the log.
type ResolvePurchase struct {
	NFTContractID string
	TokenID       string
	SeriesID      string
	EditionID     string
	OwnerID       string
	BuyerID       string
	FtTokenID     string
	Price         *decimal.Decimal
}

func (*ResolvePurchase) Kind() Kind { return KindResolvePurchase }

// ResolvePurchaseFail records a failed sale and clears the stale listing.
type ResolvePurchaseFail struct {
	NFTContractID string
	TokenID       string
	SeriesID      string
	EditionID     string
	OwnerID       string
	BuyerID       string
}

func (*ResolvePurchaseFail) Kind() Kind { return KindResolvePurchaseFail }
