package event

import (
	"github.com/shopspring/decimal"
)

// The contract emits a single nft_transfer tag and encodes mint and burn
// through empty-string sender/receiver sentinels. Decode splits the tag into
// three variants so handlers never inspect string emptiness.

// Mint creates a token owned by ReceiverID. Price is set when the mint was a
// primary sale through the series price.
type Mint struct {
	TokenID    string
	SeriesID   string
	EditionID  string
	ReceiverID string
	Price      *decimal.Decimal
}

func (*Mint) Kind() Kind { return KindMint }

// Burn nulls the owner of an existing token and clears its listing.
type Burn struct {
	TokenID   string
	SeriesID  string
	EditionID string
	SenderID  string
}

func (*Burn) Kind() Kind { return KindBurn }

// Transfer moves ownership between two accounts and clears the listing.
type Transfer struct {
	TokenID    string
	SeriesID   string
	EditionID  string
	SenderID   string
	ReceiverID string
}

func (*Transfer) Kind() Kind { return KindTransfer }

// Ignored is produced for unrecognized tags; the processor skips it.
// Unknown future event types are not an error.
type Ignored struct {
	Tag string
}

func (*Ignored) Kind() Kind { return KindIgnored }
