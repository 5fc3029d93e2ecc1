package pricing_test

import (
	"context"
	"testing"

	"NFTProjector/internal/model"
	"NFTProjector/internal/pricing"
	"NFTProjector/internal/store/storetest"

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

func seedListings(t *testing.T, mem *storetest.Memory, prices map[string]*decimal.Decimal) {
	t.Helper()
	tx, err := mem.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	owner := "seller.near"
	for tokenID, price := range prices {
		tok := &model.Token{
			ContractID: "x.paras.near",
			TokenID:    tokenID,
			SeriesID:   "1",
			OwnerID:    &owner,
			Price:      price,
		}
		if err := tx.InsertToken(context.Background(), tok); err != nil {
			t.Fatalf("insert %s: %v", tokenID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestLowestOnAdd(t *testing.T) {
	ten := dec(t, "10000000000000000000000000")
	five := dec(t, "5000000000000000000000000")

	if !pricing.LowestOnAdd(nil, five) {
		t.Error("first listing should become lowest")
	}
	if !pricing.LowestOnAdd(ten, five) {
		t.Error("cheaper listing should become lowest")
	}
	if pricing.LowestOnAdd(five, ten) {
		t.Error("pricier listing should not become lowest")
	}
	if pricing.LowestOnAdd(five, nil) {
		t.Error("nil candidate never becomes lowest")
	}
}

func TestAfterUpdatePicksCheaperSurvivor(t *testing.T) {
	mem := storetest.NewMemory()
	seedListings(t, mem, map[string]*decimal.Decimal{
		"1:1": dec(t, "3000000000000000000000000"),
		"1:2": dec(t, "8000000000000000000000000"),
	})

	tx, _ := mem.Begin(context.Background())
	defer tx.Rollback()

	// 1:2 repriced above the cheapest survivor.
	lowest, err := pricing.AfterUpdate(context.Background(), tx, "x.paras.near", "1", "1:2", dec(t, "5000000000000000000000000"))
	if err != nil {
		t.Fatalf("after update: %v", err)
	}
	if lowest == nil || lowest.String() != "3000000000000000000000000" {
		t.Errorf("lowest: got %v, want 3e24", lowest)
	}

	// 1:2 repriced below everything.
	lowest, err = pricing.AfterUpdate(context.Background(), tx, "x.paras.near", "1", "1:2", dec(t, "1000000000000000000000000"))
	if err != nil {
		t.Fatalf("after update: %v", err)
	}
	if lowest == nil || lowest.String() != "1000000000000000000000000" {
		t.Errorf("lowest: got %v, want 1e24", lowest)
	}
}

func TestAfterRemoval(t *testing.T) {
	mem := storetest.NewMemory()
	seedListings(t, mem, map[string]*decimal.Decimal{
		"1:1": dec(t, "3000000000000000000000000"),
		"1:2": dec(t, "8000000000000000000000000"),
	})

	tx, _ := mem.Begin(context.Background())
	defer tx.Rollback()

	lowest, err := pricing.AfterRemoval(context.Background(), tx, "x.paras.near", "1", "1:1")
	if err != nil {
		t.Fatalf("after removal: %v", err)
	}
	if lowest == nil || lowest.String() != "8000000000000000000000000" {
		t.Errorf("lowest: got %v, want 8e24", lowest)
	}

	// Removing the only remaining listing clears the lowest ask.
	mem2 := storetest.NewMemory()
	seedListings(t, mem2, map[string]*decimal.Decimal{
		"1:1": dec(t, "3000000000000000000000000"),
	})
	tx2, _ := mem2.Begin(context.Background())
	defer tx2.Rollback()

	lowest, err = pricing.AfterRemoval(context.Background(), tx2, "x.paras.near", "1", "1:1")
	if err != nil {
		t.Fatalf("after removal: %v", err)
	}
	if lowest != nil {
		t.Errorf("lowest: got %v, want nil", lowest)
	}
}

func TestAfterSeriesPriceSet(t *testing.T) {
	mem := storetest.NewMemory()
	seedListings(t, mem, map[string]*decimal.Decimal{
		"1:1": dec(t, "4000000000000000000000000"),
	})

	tx, _ := mem.Begin(context.Background())
	defer tx.Rollback()

	ctx := context.Background()
	contract, series := "x.paras.near", "1"

	// Price above the cheapest listing keeps the current lowest.
	current := dec(t, "4000000000000000000000000")
	lowest, err := pricing.AfterSeriesPriceSet(ctx, tx, contract, series, dec(t, "9000000000000000000000000"), current)
	if err != nil {
		t.Fatalf("after set: %v", err)
	}
	if lowest == nil || lowest.String() != current.String() {
		t.Errorf("lowest: got %v, want current", lowest)
	}

	// Price below every listing becomes the lowest.
	lowest, err = pricing.AfterSeriesPriceSet(ctx, tx, contract, series, dec(t, "2000000000000000000000000"), current)
	if err != nil {
		t.Fatalf("after set: %v", err)
	}
	if lowest == nil || lowest.String() != "2000000000000000000000000" {
		t.Errorf("lowest: got %v, want 2e24", lowest)
	}

	// Clearing the price falls back to the cheapest listing.
	lowest, err = pricing.AfterSeriesPriceSet(ctx, tx, contract, series, nil, current)
	if err != nil {
		t.Fatalf("after set: %v", err)
	}
	if lowest == nil || lowest.String() != "4000000000000000000000000" {
		t.Errorf("lowest: got %v, want 4e24", lowest)
	}
}
