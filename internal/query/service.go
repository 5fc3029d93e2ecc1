// Package query serves read traffic from the projection tables. It runs on
// plain connections outside the batch transaction; readers see the state as
// of the last committed batch.
package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"NFTProjector/internal/store"

	"github.com/shopspring/decimal"
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Token returns one token by id, burned tokens included (owner_id null).
func (s *Service) Token(ctx context.Context, contractID, tokenID string) (*TokenView, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT contract_id, token_id, token_series_id, edition_id, owner_id,
		       metadata, royalty, price, approval_id, ft_token_id
		FROM tokens
		WHERE contract_id = $1 AND token_id = $2
	`, contractID, tokenID)

	v, err := scanTokenView(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("token %s/%s: %w", contractID, tokenID, err)
	}
	return v, nil
}

// TokensByOwner lists tokens currently held by one account, newest series
// first by primary key order.
func (s *Service) TokensByOwner(ctx context.Context, ownerID string, page Page) ([]*TokenView, error) {
	page = page.clamped()
	rows, err := s.db.QueryContext(ctx, `
		SELECT contract_id, token_id, token_series_id, edition_id, owner_id,
		       metadata, royalty, price, approval_id, ft_token_id
		FROM tokens
		WHERE owner_id = $1
		ORDER BY contract_id, token_id
		LIMIT $2 OFFSET $3
	`, ownerID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("tokens by owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var out []*TokenView
	for rows.Next() {
		v, err := scanTokenView(rows)
		if err != nil {
			return nil, fmt.Errorf("tokens by owner %s: %w", ownerID, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Series returns one series with its circulation counters and lowest ask.
func (s *Service) Series(ctx context.Context, contractID, seriesID string) (*SeriesView, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT contract_id, token_series_id, creator_id, price, lowest_price,
		       royalty, metadata, in_circulation, total_mint, is_non_mintable, updated_at
		FROM token_series
		WHERE contract_id = $1 AND token_series_id = $2
	`, contractID, seriesID)

	var (
		v        SeriesView
		creator  sql.NullString
		price    sql.NullString
		lowest   sql.NullString
		royalty  []byte
		metadata []byte
	)
	err := row.Scan(
		&v.ContractID, &v.SeriesID, &creator, &price, &lowest,
		&royalty, &metadata, &v.InCirculation, &v.TotalMint, &v.NonMintable, &v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("series %s/%s: %w", contractID, seriesID, err)
	}

	v.CreatorID = optStr(creator)
	if v.Price, err = optDec(price); err != nil {
		return nil, err
	}
	if v.LowestPrice, err = optDec(lowest); err != nil {
		return nil, err
	}
	if err := optJSON(royalty, &v.Royalty); err != nil {
		return nil, err
	}
	if err := optJSON(metadata, &v.Metadata); err != nil {
		return nil, err
	}
	return &v, nil
}

// ActivityFilter narrows the feed. ContractID is required; SeriesID and
// TokenID are optional.
type ActivityFilter struct {
	ContractID string
	SeriesID   string
	TokenID    string
}

// Activities returns the feed newest first.
func (s *Service) Activities(ctx context.Context, f ActivityFilter, page Page) ([]*ActivityView, error) {
	page = page.clamped()
	query := `
		SELECT id, contract_id, type, from_account, to_account, token_id,
		       token_series_id, price, ft_token_id, issued_at, raw_msg
		FROM activities
		WHERE contract_id = $1`
	args := []interface{}{f.ContractID}

	if f.SeriesID != "" {
		args = append(args, f.SeriesID)
		query += fmt.Sprintf(" AND token_series_id = $%d", len(args))
	}
	if f.TokenID != "" {
		args = append(args, f.TokenID)
		query += fmt.Sprintf(" AND token_id = $%d", len(args))
	}

	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY issued_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("activities %s: %w", f.ContractID, err)
	}
	defer rows.Close()

	var out []*ActivityView
	for rows.Next() {
		var (
			v       ActivityView
			from    sql.NullString
			to      sql.NullString
			tokenID sql.NullString
			series  sql.NullString
			price   sql.NullString
			ftToken sql.NullString
			raw     []byte
		)
		err := rows.Scan(
			&v.ID, &v.ContractID, &v.Type, &from, &to, &tokenID,
			&series, &price, &ftToken, &v.IssuedAt, &raw,
		)
		if err != nil {
			return nil, fmt.Errorf("activities %s: %w", f.ContractID, err)
		}
		v.From = optStr(from)
		v.To = optStr(to)
		v.TokenID = optStr(tokenID)
		v.SeriesID = optStr(series)
		v.FtTokenID = optStr(ftToken)
		if v.Price, err = optDec(price); err != nil {
			return nil, err
		}
		v.Raw = json.RawMessage(raw)
		out = append(out, &v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTokenView(row scanner) (*TokenView, error) {
	var (
		v        TokenView
		owner    sql.NullString
		metadata []byte
		royalty  []byte
		price    sql.NullString
		approval sql.NullInt64
		ftToken  sql.NullString
	)
	err := row.Scan(
		&v.ContractID, &v.TokenID, &v.SeriesID, &v.EditionID, &owner,
		&metadata, &royalty, &price, &approval, &ftToken,
	)
	if err != nil {
		return nil, err
	}
	v.OwnerID = optStr(owner)
	if err := optJSON(metadata, &v.Metadata); err != nil {
		return nil, err
	}
	if err := optJSON(royalty, &v.Royalty); err != nil {
		return nil, err
	}
	if v.Price, err = optDec(price); err != nil {
		return nil, err
	}
	if approval.Valid {
		v.ApprovalID = &approval.Int64
	}
	v.FtTokenID = optStr(ftToken)
	return &v, nil
}

func optStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func optDec(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", ns.String, err)
	}
	return &d, nil
}

func optJSON(b []byte, out interface{}) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}
