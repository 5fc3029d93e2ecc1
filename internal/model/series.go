package model

import (
	"github.com/shopspring/decimal"
)

// Royalty maps account id to royalty share in basis points.
type Royalty map[string]int64

// Series is one projected row of token_series. Identity is
// (ContractID, SeriesID). Series rows are never deleted; a series minted
// before its create event arrives exists as an orphan placeholder marked
// non-mintable.
type Series struct {
	ContractID    string
	SeriesID      string
	CreatorID     *string
	Price         *decimal.Decimal // explicit series price, nil when unset
	LowestPrice   *decimal.Decimal // min listed token price, nil when none listed
	Royalty       Royalty
	Metadata      Metadata
	InCirculation int64
	TotalMint     int64
	NonMintable   bool
	UpdatedAt     int64 // unix ms of the last significant event
}

// Clone returns a deep-enough copy for snapshot-based transactions
// (metadata shallow-copied, decimals immutable).
func (s *Series) Clone() *Series {
	out := *s
	out.Metadata = s.Metadata.Clone()
	if s.Royalty != nil {
		out.Royalty = make(Royalty, len(s.Royalty))
		for k, v := range s.Royalty {
			out.Royalty[k] = v
		}
	}
	return &out
}
