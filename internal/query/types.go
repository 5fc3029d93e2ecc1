package query

import (
	"encoding/json"

	"NFTProjector/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Response shapes for the read API. Prices serialize as decimal strings;
// yocto amounts do not fit in JSON numbers.

type TokenView struct {
	ContractID string           `json:"contract_id"`
	TokenID    string           `json:"token_id"`
	SeriesID   string           `json:"token_series_id"`
	EditionID  string           `json:"edition_id"`
	OwnerID    *string          `json:"owner_id"`
	Metadata   model.Metadata   `json:"metadata,omitempty"`
	Royalty    model.Royalty    `json:"royalty,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	ApprovalID *int64           `json:"approval_id,omitempty"`
	FtTokenID  *string          `json:"ft_token_id,omitempty"`
}

type SeriesView struct {
	ContractID    string           `json:"contract_id"`
	SeriesID      string           `json:"token_series_id"`
	CreatorID     *string          `json:"creator_id"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	LowestPrice   *decimal.Decimal `json:"lowest_price,omitempty"`
	Royalty       model.Royalty    `json:"royalty,omitempty"`
	Metadata      model.Metadata   `json:"metadata,omitempty"`
	InCirculation int64            `json:"in_circulation"`
	TotalMint     int64            `json:"total_mint"`
	NonMintable   bool             `json:"non_mintable"`
	UpdatedAt     int64            `json:"updated_at"`
}

type ActivityView struct {
	ID         uuid.UUID        `json:"id"`
	ContractID string           `json:"contract_id"`
	Type       string           `json:"type"`
	From       *string          `json:"from,omitempty"`
	To         *string          `json:"to,omitempty"`
	TokenID    *string          `json:"token_id,omitempty"`
	SeriesID   *string          `json:"token_series_id,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	FtTokenID  *string          `json:"ft_token_id,omitempty"`
	IssuedAt   int64            `json:"issued_at"`
	Raw        json.RawMessage  `json:"raw,omitempty"`
}

// Page bounds list queries. Limit is clamped to [1, MaxLimit].
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 30
	MaxLimit     = 100
)

func (p Page) clamped() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
