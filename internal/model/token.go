package model

import (
	"github.com/shopspring/decimal"
)

// Token is one minted edition of a series. Identity is
// (ContractID, TokenID); TokenID is "<series_id>:<edition_id>".
// Burning nulls OwnerID instead of deleting the row, so provenance queries
// keep working. Price/ApprovalID/FtTokenID form the marketplace listing and
// are cleared together on transfer, burn and delisting.
type Token struct {
	ContractID string
	TokenID    string
	SeriesID   string
	EditionID  string
	OwnerID    *string
	Metadata   Metadata
	Royalty    Royalty
	Price      *decimal.Decimal
	ApprovalID *int64
	FtTokenID  *string
}

// Listed reports whether the token currently carries a listing price.
func (t *Token) Listed() bool {
	return t.Price != nil
}

// ClearListing removes the marketplace listing fields.
func (t *Token) ClearListing() {
	t.Price = nil
	t.ApprovalID = nil
	t.FtTokenID = nil
}

// Clone returns a copy suitable for snapshot-based transactions.
func (t *Token) Clone() *Token {
	out := *t
	out.Metadata = t.Metadata.Clone()
	if t.Royalty != nil {
		out.Royalty = make(Royalty, len(t.Royalty))
		for k, v := range t.Royalty {
			out.Royalty[k] = v
		}
	}
	return &out
}
