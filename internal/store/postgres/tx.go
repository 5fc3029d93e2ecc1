package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"NFTProjector/internal/model"
	"NFTProjector/internal/store"

	"github.com/shopspring/decimal"
)

// Tx wraps one sql.Tx; the store's transaction isolation, not application
// locking, provides batch atomicity.
type Tx struct {
	tx *sql.Tx
}

const seriesColumns = `contract_id, token_series_id, creator_id, price, lowest_price,
	royalty, metadata, in_circulation, total_mint, is_non_mintable, updated_at`

func (t *Tx) GetSeries(ctx context.Context, contractID, seriesID string) (*model.Series, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+seriesColumns+`
		FROM token_series
		WHERE contract_id = $1 AND token_series_id = $2
	`, contractID, seriesID)
	return scanSeries(row)
}

func scanSeries(row *sql.Row) (*model.Series, error) {
	var (
		s         model.Series
		creator   sql.NullString
		price     sql.NullString
		lowest    sql.NullString
		royalty   []byte
		metadata  []byte
		updatedAt sql.NullInt64
	)
	err := row.Scan(
		&s.ContractID, &s.SeriesID, &creator, &price, &lowest,
		&royalty, &metadata, &s.InCirculation, &s.TotalMint, &s.NonMintable, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan series: %w", err)
	}

	s.CreatorID = scanStr(creator)
	if s.Price, err = scanDec(price); err != nil {
		return nil, err
	}
	if s.LowestPrice, err = scanDec(lowest); err != nil {
		return nil, err
	}
	if s.Royalty, err = scanRoyalty(royalty); err != nil {
		return nil, err
	}
	if s.Metadata, err = scanMetadata(metadata); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		s.UpdatedAt = updatedAt.Int64
	}
	return &s, nil
}

func (t *Tx) InsertSeries(ctx context.Context, s *model.Series) error {
	royalty, err := jsonArg(s.Royalty)
	if err != nil {
		return err
	}
	metadata, err := jsonArg(s.Metadata)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO token_series (`+seriesColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		s.ContractID, s.SeriesID, nullStr(s.CreatorID), nullDec(s.Price), nullDec(s.LowestPrice),
		royalty, metadata, s.InCirculation, s.TotalMint, s.NonMintable, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert series %s/%s: %w", s.ContractID, s.SeriesID, err)
	}
	return nil
}

func (t *Tx) UpdateSeries(ctx context.Context, s *model.Series) error {
	royalty, err := jsonArg(s.Royalty)
	if err != nil {
		return err
	}
	metadata, err := jsonArg(s.Metadata)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE token_series
		SET creator_id = $3, price = $4, lowest_price = $5, royalty = $6, metadata = $7,
		    in_circulation = $8, total_mint = $9, is_non_mintable = $10, updated_at = $11
		WHERE contract_id = $1 AND token_series_id = $2
	`,
		s.ContractID, s.SeriesID, nullStr(s.CreatorID), nullDec(s.Price), nullDec(s.LowestPrice),
		royalty, metadata, s.InCirculation, s.TotalMint, s.NonMintable, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update series %s/%s: %w", s.ContractID, s.SeriesID, err)
	}
	return requireRow(res)
}

const tokenColumns = `contract_id, token_id, token_series_id, edition_id, owner_id,
	metadata, royalty, price, approval_id, ft_token_id`

func (t *Tx) GetToken(ctx context.Context, contractID, tokenID string) (*model.Token, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE contract_id = $1 AND token_id = $2
	`, contractID, tokenID)
	return scanToken(row)
}

func (t *Tx) GetTokenOwned(ctx context.Context, contractID, tokenID, ownerID string) (*model.Token, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE contract_id = $1 AND token_id = $2 AND owner_id = $3
	`, contractID, tokenID, ownerID)
	return scanToken(row)
}

func scanToken(row *sql.Row) (*model.Token, error) {
	var (
		tok      model.Token
		owner    sql.NullString
		metadata []byte
		royalty  []byte
		price    sql.NullString
		approval sql.NullInt64
		ftToken  sql.NullString
	)
	err := row.Scan(
		&tok.ContractID, &tok.TokenID, &tok.SeriesID, &tok.EditionID, &owner,
		&metadata, &royalty, &price, &approval, &ftToken,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan token: %w", err)
	}

	tok.OwnerID = scanStr(owner)
	if tok.Metadata, err = scanMetadata(metadata); err != nil {
		return nil, err
	}
	if tok.Royalty, err = scanRoyalty(royalty); err != nil {
		return nil, err
	}
	if tok.Price, err = scanDec(price); err != nil {
		return nil, err
	}
	tok.ApprovalID = scanInt(approval)
	tok.FtTokenID = scanStr(ftToken)
	return &tok, nil
}

func (t *Tx) InsertToken(ctx context.Context, tok *model.Token) error {
	metadata, err := jsonArg(tok.Metadata)
	if err != nil {
		return err
	}
	royalty, err := jsonArg(tok.Royalty)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		tok.ContractID, tok.TokenID, tok.SeriesID, tok.EditionID, nullStr(tok.OwnerID),
		metadata, royalty, nullDec(tok.Price), nullInt(tok.ApprovalID), nullStr(tok.FtTokenID),
	)
	if err != nil {
		return fmt.Errorf("insert token %s/%s: %w", tok.ContractID, tok.TokenID, err)
	}
	return nil
}

func (t *Tx) UpdateToken(ctx context.Context, tok *model.Token) error {
	metadata, err := jsonArg(tok.Metadata)
	if err != nil {
		return err
	}
	royalty, err := jsonArg(tok.Royalty)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE tokens
		SET token_series_id = $3, edition_id = $4, owner_id = $5, metadata = $6,
		    royalty = $7, price = $8, approval_id = $9, ft_token_id = $10
		WHERE contract_id = $1 AND token_id = $2
	`,
		tok.ContractID, tok.TokenID, tok.SeriesID, tok.EditionID, nullStr(tok.OwnerID),
		metadata, royalty, nullDec(tok.Price), nullInt(tok.ApprovalID), nullStr(tok.FtTokenID),
	)
	if err != nil {
		return fmt.Errorf("update token %s/%s: %w", tok.ContractID, tok.TokenID, err)
	}
	return requireRow(res)
}

func (t *Tx) UpdateTokensCopies(ctx context.Context, contractID, seriesID string, copies int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE tokens
		SET metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), '{copies}', to_jsonb($3::bigint))
		WHERE contract_id = $1 AND token_series_id = $2
	`, contractID, seriesID, copies)
	if err != nil {
		return 0, fmt.Errorf("update tokens copies %s/%s: %w", contractID, seriesID, err)
	}
	return res.RowsAffected()
}

func (t *Tx) CheapestListed(ctx context.Context, q store.CheapestQuery) (*decimal.Decimal, error) {
	query := `
		SELECT price FROM tokens
		WHERE contract_id = $1 AND token_series_id = $2 AND price IS NOT NULL`
	args := []interface{}{q.ContractID, q.SeriesID}

	if q.ExcludeToken != "" {
		args = append(args, q.ExcludeToken)
		query += fmt.Sprintf(" AND token_id <> $%d", len(args))
	}
	if q.Below != nil {
		args = append(args, q.Below.String())
		query += fmt.Sprintf(" AND price < $%d", len(args))
	}
	query += " ORDER BY price ASC LIMIT 1"

	var price sql.NullString
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(&price)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cheapest listed %s/%s: %w", q.ContractID, q.SeriesID, err)
	}
	return scanDec(price)
}

func (t *Tx) InsertActivity(ctx context.Context, a *model.Activity) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO activities
			(id, contract_id, type, from_account, to_account, token_id,
			 token_series_id, price, ft_token_id, issued_at, raw_msg)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		a.ID, a.ContractID, a.Type, nullStr(a.From), nullStr(a.To), nullStr(a.TokenID),
		nullStr(a.SeriesID), nullDec(a.Price), nullStr(a.FtTokenID), a.IssuedAt, []byte(a.Raw),
	)
	if err != nil {
		return fmt.Errorf("insert activity %s: %w", a.Type, err)
	}
	return nil
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// requireRow maps a zero-row UPDATE to ErrNotFound so handlers see the same
// taxonomy as reads.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
