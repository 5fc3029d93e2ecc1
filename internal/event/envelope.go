package event

import (
	"encoding/json"
	"time"
)

// Kind discriminates decoded event variants.
type Kind int32

const (
	KindIgnored Kind = iota
	KindCreateSeries
	KindMint
	KindBurn
	KindTransfer
	KindSetSeriesPrice
	KindSetSeriesNonMintable
	KindDecreaseSeriesCopies
	KindAddMarketData
	KindUpdateMarketData
	KindDeleteMarketData
	KindResolvePurchase
	KindResolvePurchaseFail
)

// Wire tags emitted by the NFT and marketplace contracts.
const (
	TagCreateSeries         = "nft_create_series"
	TagTransfer             = "nft_transfer"
	TagSetSeriesPrice       = "nft_set_series_price"
	TagSetSeriesNonMintable = "nft_set_series_non_mintable"
	TagDecreaseSeriesCopies = "nft_decrease_series_copies"
	TagAddMarketData        = "add_market_data"
	TagUpdateMarketData     = "update_market_data"
	TagDeleteMarketData     = "delete_market_data"
	TagResolvePurchase      = "resolve_purchase"
	TagResolvePurchaseFail  = "resolve_purchase_fail"
)

// Envelope is one queue message: all events of one block, applied atomically.
type Envelope struct {
	ContractID  string    `json:"contract_id"`
	BlockHeight int64     `json:"block_height"`
	Datetime    time.Time `json:"datetime"`
	Events      []Raw     `json:"events"`
}

// IssuedAt returns the batch timestamp as unix milliseconds, the precision
// stored on projected rows.
func (e *Envelope) IssuedAt() int64 {
	return e.Datetime.UnixMilli()
}

// Raw is one undecoded event as delivered inside an envelope.
type Raw struct {
	ContractID string          `json:"contract_id"`
	EventType  string          `json:"event_type"`
	Params     json.RawMessage `json:"params"`
}

// Event is implemented by every decoded variant.
type Event interface {
	Kind() Kind
}

func (k Kind) String() string {
	switch k {
	case KindCreateSeries:
		return TagCreateSeries
	case KindMint:
		return "nft_mint"
	case KindBurn:
		return "nft_burn"
	case KindTransfer:
		return TagTransfer
	case KindSetSeriesPrice:
		return TagSetSeriesPrice
	case KindSetSeriesNonMintable:
		return TagSetSeriesNonMintable
	case KindDecreaseSeriesCopies:
		return TagDecreaseSeriesCopies
	case KindAddMarketData:
		return TagAddMarketData
	case KindUpdateMarketData:
		return TagUpdateMarketData
	case KindDeleteMarketData:
		return TagDeleteMarketData
	case KindResolvePurchase:
		return TagResolvePurchase
	case KindResolvePurchaseFail:
		return TagResolvePurchaseFail
	default:
		return "ignored"
	}
}
