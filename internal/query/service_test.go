package query_test

import (
	"context"
	"errors"
	"testing"

	"NFTProjector/internal/model"
	"NFTProjector/internal/query"
	"NFTProjector/internal/store"
	"NFTProjector/internal/store/postgres"
	"NFTProjector/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func strp(s string) *string { return &s }

func dec(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return &d
}

func seed(t *testing.T, st *postgres.Store) {
	t.Helper()
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	series := &model.Series{
		ContractID:    "x.paras.near",
		SeriesID:      "1",
		CreatorID:     strp("carol.near"),
		LowestPrice:   dec(t, "3000000000000000000000000"),
		Metadata:      model.Metadata{"title": "Test Series"},
		InCirculation: 2,
		TotalMint:     2,
		UpdatedAt:     1700000000000,
	}
	if err := tx.InsertSeries(ctx, series); err != nil {
		t.Fatalf("insert series: %v", err)
	}

	tokens := []*model.Token{
		{ContractID: "x.paras.near", TokenID: "1:1", SeriesID: "1", EditionID: "1",
			OwnerID: strp("alice.near"), Price: dec(t, "3000000000000000000000000")},
		{ContractID: "x.paras.near", TokenID: "1:2", SeriesID: "1", EditionID: "2",
			OwnerID: strp("alice.near")},
	}
	for _, tok := range tokens {
		if err := tx.InsertToken(ctx, tok); err != nil {
			t.Fatalf("insert token %s: %v", tok.TokenID, err)
		}
	}

	for i, issuedAt := range []int64{1700000000000, 1700000001000} {
		a := &model.Activity{
			ID:         uuid.New(),
			ContractID: "x.paras.near",
			Type:       "nft_transfer",
			TokenID:    strp("1:1"),
			SeriesID:   strp("1"),
			IssuedAt:   issuedAt,
			Raw:        []byte(`{}`),
		}
		if i == 1 {
			a.Type = "add_market_data"
		}
		if err := tx.InsertActivity(ctx, a); err != nil {
			t.Fatalf("insert activity: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestQueryService(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	seed(t, postgres.New(db))
	svc := query.NewService(db)
	ctx := context.Background()

	t.Run("token by id", func(t *testing.T) {
		v, err := svc.Token(ctx, "x.paras.near", "1:1")
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if v.OwnerID == nil || *v.OwnerID != "alice.near" {
			t.Errorf("owner: got %v", v.OwnerID)
		}
		if v.Price == nil || v.Price.String() != "3000000000000000000000000" {
			t.Errorf("price: got %v", v.Price)
		}
	})

	t.Run("token not found", func(t *testing.T) {
		_, err := svc.Token(ctx, "x.paras.near", "ghost")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("tokens by owner", func(t *testing.T) {
		vs, err := svc.TokensByOwner(ctx, "alice.near", query.Page{})
		if err != nil {
			t.Fatalf("tokens by owner: %v", err)
		}
		if len(vs) != 2 {
			t.Errorf("count: got %d, want 2", len(vs))
		}
	})

	t.Run("series detail", func(t *testing.T) {
		v, err := svc.Series(ctx, "x.paras.near", "1")
		if err != nil {
			t.Fatalf("series: %v", err)
		}
		if v.InCirculation != 2 || v.TotalMint != 2 {
			t.Errorf("counters: got %d/%d", v.InCirculation, v.TotalMint)
		}
		if v.LowestPrice == nil || v.LowestPrice.String() != "3000000000000000000000000" {
			t.Errorf("lowest: got %v", v.LowestPrice)
		}
	})

	t.Run("activity feed newest first", func(t *testing.T) {
		vs, err := svc.Activities(ctx, query.ActivityFilter{ContractID: "x.paras.near", SeriesID: "1"}, query.Page{})
		if err != nil {
			t.Fatalf("activities: %v", err)
		}
		if len(vs) != 2 {
			t.Fatalf("count: got %d, want 2", len(vs))
		}
		if vs[0].Type != "add_market_data" {
			t.Errorf("order: got %s first, want add_market_data", vs[0].Type)
		}
	})

	t.Run("activity feed paging", func(t *testing.T) {
		vs, err := svc.Activities(ctx, query.ActivityFilter{ContractID: "x.paras.near"}, query.Page{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("activities: %v", err)
		}
		if len(vs) != 1 {
			t.Fatalf("count: got %d, want 1", len(vs))
		}
		if vs[0].Type != "nft_transfer" {
			t.Errorf("offset row: got %s, want nft_transfer", vs[0].Type)
		}
	})
}
