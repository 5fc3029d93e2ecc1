// Package storetest provides an in-memory Store for handler tests.
// Transactions are snapshot-based: Begin deep-copies the committed state,
// Commit swaps the copy back, Rollback discards it. Begin also takes the
// store lock until the transaction ends, mirroring the one-batch-in-flight
// contract of the real pipeline.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"NFTProjector/internal/model"
	"NFTProjector/internal/store"

	"github.com/shopspring/decimal"
)

type Memory struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	series     map[string]*model.Series
	tokens     map[string]*model.Token
	activities []*model.Activity
}

func NewMemory() *Memory {
	return &Memory{state: &state{
		series: make(map[string]*model.Series),
		tokens: make(map[string]*model.Token),
	}}
}

func key(contractID, id string) string {
	return contractID + "/" + id
}

func (s *state) clone() *state {
	out := &state{
		series:     make(map[string]*model.Series, len(s.series)),
		tokens:     make(map[string]*model.Token, len(s.tokens)),
		activities: append([]*model.Activity(nil), s.activities...),
	}
	for k, v := range s.series {
		out.series[k] = v.Clone()
	}
	for k, v := range s.tokens {
		out.tokens[k] = v.Clone()
	}
	return out
}

func (m *Memory) Begin(ctx context.Context) (store.Tx, error) {
	m.mu.Lock()
	return &memTx{parent: m, work: m.state.clone()}, nil
}

// --- committed-state accessors for test assertions ---

func (m *Memory) Series(contractID, seriesID string) (*model.Series, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.state.series[key(contractID, seriesID)]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

func (m *Memory) Token(contractID, tokenID string) (*model.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.tokens[key(contractID, tokenID)]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (m *Memory) Activities() []*model.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Activity(nil), m.state.activities...)
}

type memTx struct {
	parent *Memory
	work   *state
	done   bool
}

func (t *memTx) finish() error {
	if t.done {
		return fmt.Errorf("storetest: transaction already finished")
	}
	t.done = true
	t.parent.mu.Unlock()
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return fmt.Errorf("storetest: transaction already finished")
	}
	t.parent.state = t.work
	return t.finish()
}

func (t *memTx) Rollback() error {
	return t.finish()
}

func (t *memTx) GetSeries(ctx context.Context, contractID, seriesID string) (*model.Series, error) {
	s, ok := t.work.series[key(contractID, seriesID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.Clone(), nil
}

func (t *memTx) InsertSeries(ctx context.Context, s *model.Series) error {
	k := key(s.ContractID, s.SeriesID)
	if _, exists := t.work.series[k]; exists {
		return fmt.Errorf("storetest: duplicate series %s", k)
	}
	t.work.series[k] = s.Clone()
	return nil
}

func (t *memTx) UpdateSeries(ctx context.Context, s *model.Series) error {
	k := key(s.ContractID, s.SeriesID)
	if _, ok := t.work.series[k]; !ok {
		return store.ErrNotFound
	}
	t.work.series[k] = s.Clone()
	return nil
}

func (t *memTx) GetToken(ctx context.Context, contractID, tokenID string) (*model.Token, error) {
	tok, ok := t.work.tokens[key(contractID, tokenID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return tok.Clone(), nil
}

func (t *memTx) GetTokenOwned(ctx context.Context, contractID, tokenID, ownerID string) (*model.Token, error) {
	tok, ok := t.work.tokens[key(contractID, tokenID)]
	if !ok || tok.OwnerID == nil || *tok.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return tok.Clone(), nil
}

func (t *memTx) InsertToken(ctx context.Context, tok *model.Token) error {
	k := key(tok.ContractID, tok.TokenID)
	if _, exists := t.work.tokens[k]; exists {
		return fmt.Errorf("storetest: duplicate token %s", k)
	}
	t.work.tokens[k] = tok.Clone()
	return nil
}

func (t *memTx) UpdateToken(ctx context.Context, tok *model.Token) error {
	k := key(tok.ContractID, tok.TokenID)
	if _, ok := t.work.tokens[k]; !ok {
		return store.ErrNotFound
	}
	t.work.tokens[k] = tok.Clone()
	return nil
}

func (t *memTx) UpdateTokensCopies(ctx context.Context, contractID, seriesID string, copies int64) (int64, error) {
	var n int64
	for _, tok := range t.work.tokens {
		if tok.ContractID == contractID && tok.SeriesID == seriesID {
			if tok.Metadata == nil {
				tok.Metadata = model.Metadata{}
			}
			tok.Metadata.SetCopies(copies)
			n++
		}
	}
	return n, nil
}

func (t *memTx) CheapestListed(ctx context.Context, q store.CheapestQuery) (*decimal.Decimal, error) {
	var cheapest *decimal.Decimal
	for _, tok := range t.work.tokens {
		if tok.ContractID != q.ContractID || tok.SeriesID != q.SeriesID || tok.Price == nil {
			continue
		}
		if q.ExcludeToken != "" && tok.TokenID == q.ExcludeToken {
			continue
		}
		if q.Below != nil && tok.Price.Cmp(*q.Below) >= 0 {
			continue
		}
		if cheapest == nil || tok.Price.Cmp(*cheapest) < 0 {
			p := *tok.Price
			cheapest = &p
		}
	}
	return cheapest, nil
}

func (t *memTx) InsertActivity(ctx context.Context, a *model.Activity) error {
	cp := *a
	t.work.activities = append(t.work.activities, &cp)
	return nil
}
