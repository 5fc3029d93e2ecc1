package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Activity is one append-only audit record. Exactly one is written per
// recognized event; Raw retains the formatted event verbatim, so the
// activities table doubles as the event log.
type Activity struct {
	ID         uuid.UUID
	ContractID string
	Type       string
	From       *string
	To         *string
	TokenID    *string
	SeriesID   *string
	Price      *decimal.Decimal
	FtTokenID  *string
	IssuedAt   int64 // unix ms, from the batch datetime
	Raw        json.RawMessage
}
