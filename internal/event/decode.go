package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"NFTProjector/internal/model"

	"github.com/shopspring/decimal"
)

// Decode converts a raw wire event into its typed variant. Unknown tags
// decode to *Ignored; malformed params of a known tag are a data error and
// fail the containing batch.
func Decode(raw Raw) (Event, error) {
	switch raw.EventType {
	case TagCreateSeries:
		return decodeCreateSeries(raw.Params)
	case TagTransfer:
		return decodeTransfer(raw.Params)
	case TagSetSeriesPrice:
		return decodeSetSeriesPrice(raw.Params)
	case TagSetSeriesNonMintable:
		return decodeSetSeriesNonMintable(raw.Params)
	case TagDecreaseSeriesCopies:
		return decodeDecreaseSeriesCopies(raw.Params)
	case TagAddMarketData:
		return decodeAddMarketData(raw.Params)
	case TagUpdateMarketData:
		return decodeUpdateMarketData(raw.Params)
	case TagDeleteMarketData:
		return decodeDeleteMarketData(raw.Params)
	case TagResolvePurchase:
		return decodeResolvePurchase(raw.Params)
	case TagResolvePurchaseFail:
		return decodeResolvePurchaseFail(raw.Params)
	default:
		return &Ignored{Tag: raw.EventType}, nil
	}
}

// --- JSON wire formats ---
// Field names use snake_case to match the contract event payloads.

// u64 accepts both JSON numbers and the chain's stringified u64 values.
type u64 int64

func (u *u64) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*u = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("parse u64 %q: %w", b, err)
	}
	*u = u64(n)
	return nil
}

type createSeriesJSON struct {
	TokenSeriesID string         `json:"token_series_id"`
	CreatorID     string         `json:"creator_id"`
	Price         *string        `json:"price"`
	TokenMetadata model.Metadata `json:"token_metadata"`
	Royalty       model.Royalty  `json:"royalty"`
}

type transferJSON struct {
	TokenID    string  `json:"token_id"`
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	Price      *string `json:"price"`
}

type seriesPriceJSON struct {
	TokenSeriesID string  `json:"token_series_id"`
	Price         *string `json:"price"`
}

type seriesJSON struct {
	TokenSeriesID string `json:"token_series_id"`
}

type decreaseCopiesJSON struct {
	TokenSeriesID string `json:"token_series_id"`
	Copies        u64    `json:"copies"`
	IsNonMintable bool   `json:"is_non_mintable"`
}

type marketDataJSON struct {
	OwnerID       string  `json:"owner_id"`
	NFTContractID string  `json:"nft_contract_id"`
	TokenID       string  `json:"token_id"`
	FtTokenID     string  `json:"ft_token_id"`
	ApprovalID    u64     `json:"approval_id"`
	Price         *string `json:"price"`
	BuyerID       string  `json:"buyer_id"`
}

func decodeCreateSeries(params json.RawMessage) (Event, error) {
	var j createSeriesJSON
	if err := json.Unmarshal(params, &j); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagCreateSeries, err)
	}
	price, err := parsePrice(j.Price)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagCreateSeries, err)
	}
	return &CreateSeries{
		SeriesID:  j.TokenSeriesID,
		CreatorID: j.CreatorID,
		Price:     price,
		Metadata:  j.TokenMetadata,
		Royalty:   j.Royalty,
	}, nil
}

// decodeTransfer resolves the sender/receiver sentinels: empty sender is a
// mint, empty receiver a burn, both set an ownership transfer.
func decodeTransfer(params json.RawMessage) (Event, error) {
	var j transferJSON
	if err := json.Unmarshal(params, &j); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagTransfer, err)
	}
	seriesID, editionID, err := SplitTokenID(j.TokenID)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagTransfer, err)
	}

	switch {
	case j.SenderID == "":
		price, err := parsePrice(j.Price)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", TagTransfer, err)
		}
		return &Mint{
			TokenID:    j.TokenID,
			SeriesID:   seriesID,
			EditionID:  editionID,
			ReceiverID: j.ReceiverID,
			Price:      price,
		}, nil
	case j.ReceiverID == "":
		return &Burn{
			TokenID:   j.TokenID,
			SeriesID:  seriesID,
			EditionID: editionID,
			SenderID:  j.SenderID,
		}, nil
	default:
		return &Transfer{
			TokenID:    j.TokenID,
			SeriesID:   seriesID,
			EditionID:  editionID,
			SenderID:   j.SenderID,
			ReceiverID: j.ReceiverID,
		}, nil
	}
}

func decodeSetSeriesPrice(params json.RawMessage) (Event, error) {
	var j seriesPriceJSON
	if err := json.Unmarshal(params, &j); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagSetSeriesPrice, err)
	}
	price, err := parsePrice(j.Price)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagSetSeriesPrice, err)
	}
	return &SetSeriesPrice{SeriesID: j.TokenSeriesID, Price: price}, nil
}

func decodeSetSeriesNonMintable(params json.RawMessage) (Event, error) {
	var j seriesJSON
	if err := json.Unmarshal(params, &j); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagSetSeriesNonMintable, err)
	}
	return &SetSeriesNonMintable{SeriesID: j.TokenSeriesID}, nil
}

func decodeDecreaseSeriesCopies(params json.RawMessage) (Event, error) {
	var j decreaseCopiesJSON
	if err := json.Unmarshal(params, &j); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TagDecreaseSeriesCopies, err)
	}
	return &DecreaseSeriesCopies{
		SeriesID:    j.TokenSeriesID,
		Copies:      int64(j.Copies),
		NonMintable: j.IsNonMintable,
	}, nil
}

func decodeAddMarketData(params json.RawMessage) (Event, error) {
	j, seriesID, editionID, price, err := decodeMarketData(TagAddMarketData, params)
	if err != nil {
		return nil, err
	}
	return &AddMarketData{
		NFTContractID: j.NFTContractID,
		TokenID:       j.TokenID,
		SeriesID:      seriesID,
		EditionID:     editionID,
		OwnerID:       j.OwnerID,
		FtTokenID:     j.FtTokenID,
		ApprovalID:    int64(j.ApprovalID),
		Price:         price,
	}, nil
}

func decodeUpdateMarketData(params json.RawMessage) (Event, error) {
	j, seriesID, editionID, price, err := decodeMarketData(TagUpdateMarketData, params)
	if err != nil {
		return nil, err
	}
	return &UpdateMarketData{
		NFTContractID: j.NFTContractID,
		TokenID:       j.TokenID,
		SeriesID:      seriesID,
		EditionID:     editionID,
		OwnerID:       j.OwnerID,
		FtTokenID:     j.FtTokenID,
		Price:         price,
	}, nil
}

func decodeDeleteMarketData(params json.RawMessage) (Event, error) {
	j, seriesID, editionID, _, err := decodeMarketData(TagDeleteMarketData, params)
	if err != nil {
		return nil, err
	}
	return &DeleteMarketData{
		NFTContractID: j.NFTContractID,
		TokenID:       j.TokenID,
		SeriesID:      seriesID,
		EditionID:     editionID,
		OwnerID:       j.OwnerID,
	}, nil
}

func decodeResolvePurchase(params json.RawMessage) (Event, error) {
	j, seriesID, editionID, price, err := decodeMarketData(TagResolvePurchase, params)
	if err != nil {
		return nil, err
	}
	return &ResolvePurchase{
		NFTContractID: j.NFTContractID,
		TokenID:       j.TokenID,
		SeriesID:      seriesID,
		EditionID:     editionID,
		OwnerID:       j.OwnerID,
		BuyerID:       j.BuyerID,
		FtTokenID:     j.FtTokenID,
		Price:         price,
	}, nil
}

func decodeResolvePurchaseFail(params json.RawMessage) (Event, error) {
	j, seriesID, editionID, _, err := decodeMarketData(TagResolvePurchaseFail, params)
	if err != nil {
		return nil, err
	}
	return &ResolvePurchaseFail{
		NFTContractID: j.NFTContractID,
		TokenID:       j.TokenID,
		SeriesID:      seriesID,
		EditionID:     editionID,
		OwnerID:       j.OwnerID,
		BuyerID:       j.BuyerID,
	}, nil
}

func decodeMarketData(tag string, params json.RawMessage) (j marketDataJSON, seriesID, editionID string, price *decimal.Decimal, err error) {
	if err = json.Unmarshal(params, &j); err != nil {
		err = fmt.Errorf("decode %s: %w", tag, err)
		return
	}
	seriesID, editionID, err = SplitTokenID(j.TokenID)
	if err != nil {
		err = fmt.Errorf("decode %s: %w", tag, err)
		return
	}
	price, err = parsePrice(j.Price)
	if err != nil {
		err = fmt.Errorf("decode %s: %w", tag, err)
	}
	return
}

// SplitTokenID splits "<series_id>:<edition_id>". Tokens minted outside a
// series carry no edition suffix.
func SplitTokenID(tokenID string) (seriesID, editionID string, err error) {
	if tokenID == "" {
		return "", "", fmt.Errorf("empty token_id")
	}
	parts := strings.SplitN(tokenID, ":", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("malformed token_id %q", tokenID)
	}
	if len(parts) == 2 {
		editionID = parts[1]
	}
	return parts[0], editionID, nil
}

// parsePrice parses an on-chain yocto amount. Amounts exceed float64 range,
// so they stay exact decimals end to end.
func parsePrice(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", *s, err)
	}
	return &d, nil
}
