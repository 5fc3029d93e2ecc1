package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"NFTProjector/internal/model"
	"NFTProjector/internal/store"
	"NFTProjector/internal/store/postgres"
	"NFTProjector/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return &d
}

func strp(s string) *string { return &s }

func TestSeriesRoundTrip(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	st := postgres.New(db)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	in := &model.Series{
		ContractID:  "x.paras.near",
		SeriesID:    "1",
		CreatorID:   strp("carol.near"),
		Price:       dec(t, "2000000000000000000000000"),
		LowestPrice: dec(t, "2000000000000000000000000"),
		Royalty:     model.Royalty{"carol.near": 1000},
		Metadata:    model.Metadata{"title": "Test", "copies": "10"},
		UpdatedAt:   1700000000000,
	}
	if err := tx.InsertSeries(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := tx.GetSeries(ctx, "x.paras.near", "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CreatorID == nil || *got.CreatorID != "carol.near" {
		t.Errorf("creator: got %v", got.CreatorID)
	}
	if got.Price == nil || got.Price.Cmp(*in.Price) != 0 {
		t.Errorf("price: got %v, want %v", got.Price, in.Price)
	}
	if got.Royalty["carol.near"] != 1000 {
		t.Errorf("royalty: got %v", got.Royalty)
	}
	if copies, ok := got.Metadata.Copies(); !ok || copies != 10 {
		t.Errorf("copies: got %d (%v)", copies, ok)
	}

	got.InCirculation = 3
	got.Price = nil
	if err := tx.UpdateSeries(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = tx.GetSeries(ctx, "x.paras.near", "1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.InCirculation != 3 || got.Price != nil {
		t.Errorf("after update: circ %d, price %v", got.InCirculation, got.Price)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestGetTokenOwnedMismatch(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	st := postgres.New(db)
	ctx := context.Background()

	tx, _ := st.Begin(ctx)
	defer tx.Rollback()

	tok := &model.Token{
		ContractID: "x.paras.near",
		TokenID:    "1:1",
		SeriesID:   "1",
		EditionID:  "1",
		OwnerID:    strp("alice.near"),
	}
	if err := tx.InsertToken(ctx, tok); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := tx.GetTokenOwned(ctx, "x.paras.near", "1:1", "alice.near"); err != nil {
		t.Errorf("matching owner: %v", err)
	}
	if _, err := tx.GetTokenOwned(ctx, "x.paras.near", "1:1", "mallory.near"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("owner mismatch: got %v, want ErrNotFound", err)
	}
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	st := postgres.New(db)
	ctx := context.Background()

	tx, _ := st.Begin(ctx)
	defer tx.Rollback()

	err := tx.UpdateSeries(ctx, &model.Series{ContractID: "x.paras.near", SeriesID: "ghost"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestCheapestListed(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	st := postgres.New(db)
	ctx := context.Background()

	tx, _ := st.Begin(ctx)

	prices := map[string]*decimal.Decimal{
		"1:1": dec(t, "5000000000000000000000000"),
		"1:2": dec(t, "3000000000000000000000000"),
		"1:3": nil, // unlisted
	}
	for tokenID, price := range prices {
		tok := &model.Token{
			ContractID: "x.paras.near",
			TokenID:    tokenID,
			SeriesID:   "1",
			EditionID:  "1",
			OwnerID:    strp("alice.near"),
			Price:      price,
		}
		if err := tx.InsertToken(ctx, tok); err != nil {
			t.Fatalf("insert %s: %v", tokenID, err)
		}
	}

	got, err := tx.CheapestListed(ctx, store.CheapestQuery{ContractID: "x.paras.near", SeriesID: "1"})
	if err != nil {
		t.Fatalf("cheapest: %v", err)
	}
	if got == nil || got.String() != "3000000000000000000000000" {
		t.Errorf("cheapest: got %v, want 3e24", got)
	}

	got, err = tx.CheapestListed(ctx, store.CheapestQuery{
		ContractID: "x.paras.near", SeriesID: "1", ExcludeToken: "1:2",
	})
	if err != nil {
		t.Fatalf("cheapest excluding: %v", err)
	}
	if got == nil || got.String() != "5000000000000000000000000" {
		t.Errorf("cheapest excluding: got %v, want 5e24", got)
	}

	got, err = tx.CheapestListed(ctx, store.CheapestQuery{
		ContractID: "x.paras.near", SeriesID: "1", Below: dec(t, "3000000000000000000000000"),
	})
	if err != nil {
		t.Fatalf("cheapest below: %v", err)
	}
	if got != nil {
		t.Errorf("strict bound: got %v, want nil", got)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}

func TestUpdateTokensCopies(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	st := postgres.New(db)
	ctx := context.Background()

	tx, _ := st.Begin(ctx)
	defer tx.Rollback()

	for _, tokenID := range []string{"1:1", "1:2"} {
		tok := &model.Token{
			ContractID: "x.paras.near",
			TokenID:    tokenID,
			SeriesID:   "1",
			EditionID:  "1",
			OwnerID:    strp("alice.near"),
			Metadata:   model.Metadata{"title": "x", "copies": "10"},
		}
		if err := tx.InsertToken(ctx, tok); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	n, err := tx.UpdateTokensCopies(ctx, "x.paras.near", "1", 2)
	if err != nil {
		t.Fatalf("update copies: %v", err)
	}
	if n != 2 {
		t.Errorf("rows: got %d, want 2", n)
	}

	tok, err := tx.GetToken(ctx, "x.paras.near", "1:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if copies, ok := tok.Metadata.Copies(); !ok || copies != 2 {
		t.Errorf("copies: got %d (%v), want 2", copies, ok)
	}
	if tok.Metadata["title"] != "x" {
		t.Errorf("title lost: %v", tok.Metadata)
	}
}

func TestInsertActivity(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	st := postgres.New(db)
	ctx := context.Background()

	tx, _ := st.Begin(ctx)

	a := &model.Activity{
		ID:         uuid.New(),
		ContractID: "x.paras.near",
		Type:       "nft_transfer",
		From:       strp("alice.near"),
		To:         strp("bob.near"),
		TokenID:    strp("1:1"),
		SeriesID:   strp("1"),
		Price:      dec(t, "4000000000000000000000000"),
		FtTokenID:  strp("near"),
		IssuedAt:   1700000000000,
		Raw:        json.RawMessage(`{"event_type":"nft_transfer"}`),
	}
	if err := tx.InsertActivity(ctx, a); err != nil {
		t.Fatalf("insert activity: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM activities WHERE contract_id = 'x.paras.near'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count: got %d, want 1", count)
	}
}
