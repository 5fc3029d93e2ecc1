// Package postgres implements the projection store on PostgreSQL.
// Prices are NUMERIC(40,0): on-chain yocto amounts exceed both int64 and
// float64 range and must stay exact. Metadata and royalty documents are
// JSONB. The partial index on listed tokens makes the lowest-ask query an
// index-assisted ORDER BY price ASC LIMIT 1.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"NFTProjector/internal/model"
	"NFTProjector/internal/store"

	"github.com/shopspring/decimal"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// DB exposes the underlying handle for the read-only query service.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- null/JSON conversion helpers ---

func nullStr(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullDec(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullInt(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func jsonArg(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return b, nil
}

func scanStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func scanDec(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("scan numeric %q: %w", ns.String, err)
	}
	return &d, nil
}

func scanInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

func scanMetadata(raw []byte) (model.Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m model.Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("scan metadata: %w", err)
	}
	return m, nil
}

func scanRoyalty(raw []byte) (model.Royalty, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var r model.Royalty
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("scan royalty: %w", err)
	}
	return r, nil
}
