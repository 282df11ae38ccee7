//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used for dry runs and tests. A single
// mutex guards the natural-key maps, which stands in for the uniqueness
// constraints of the Postgres store.
type MemoryStore struct {
	mu sync.Mutex

	dates  map[time.Time]*DateDim
	items  map[string]*ItemDim
	buyers map[int64]*BuyerDim
	facts  []FactSale

	nextDate  int64
	nextItem  int64
	nextBuyer int64
	nextFact  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dates:  make(map[time.Time]*DateDim),
		items:  make(map[string]*ItemDim),
		buyers: make(map[int64]*BuyerDim),
	}
}

// ResolveDate returns the surrogate key for a date, creating the row on
// first sight.
func (m *MemoryStore) ResolveDate(ctx context.Context, date time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveDateLocked(date), nil
}

func (m *MemoryStore) resolveDateLocked(date time.Time) int64 {
	d := Midnight(date)
	if row, ok := m.dates[d]; ok {
		return row.Key
	}
	m.nextDate++
	row := NewDateDim(d)
	row.Key = m.nextDate
	m.dates[d] = &row
	return row.Key
}

// ResolveItem returns the surrogate key for an item code, creating the
// row on first sight.
func (m *MemoryStore) ResolveItem(ctx context.Context, attrs ItemAttrs) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := m.items[attrs.ItemCode]; ok {
		return row.Key, nil
	}
	m.nextItem++
	row := &ItemDim{
		Key:      m.nextItem,
		ItemCode: attrs.ItemCode,
		ItemID:   attrs.ItemID,
		ItemName: attrs.ItemName,
		Category: attrs.Category,
		Version:  attrs.Version,
	}
	m.items[attrs.ItemCode] = row
	return row.Key, nil
}

// ResolveBuyer returns the surrogate key for a buyer id, creating the
// row on first sight.
func (m *MemoryStore) ResolveBuyer(ctx context.Context, buyerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := m.buyers[buyerID]; ok {
		return row.Key, nil
	}
	m.nextBuyer++
	row := &BuyerDim{Key: m.nextBuyer, BuyerID: buyerID}
	m.buyers[buyerID] = row
	return row.Key, nil
}

// EnsureDateRange creates calendar rows for every day in [from, to].
func (m *MemoryStore) EnsureDateRange(ctx context.Context, from, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for d := Midnight(from); !d.After(Midnight(to)); d = d.AddDate(0, 0, 1) {
		m.resolveDateLocked(d)
	}
	return nil
}

// InsertFact appends a fact row and assigns its surrogate key.
func (m *MemoryStore) InsertFact(ctx context.Context, fact *FactSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextFact++
	fact.Key = m.nextFact
	m.facts = append(m.facts, *fact)
	return nil
}

// Snapshot copies out the accumulated dimensions and facts.
func (m *MemoryStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &Snapshot{
		Dates:  make([]DateDim, 0, len(m.dates)),
		Items:  make([]ItemDim, 0, len(m.items)),
		Buyers: make([]BuyerDim, 0, len(m.buyers)),
		Facts:  make([]FactSale, len(m.facts)),
	}
	for _, d := range m.dates {
		snap.Dates = append(snap.Dates, *d)
	}
	for _, it := range m.items {
		snap.Items = append(snap.Items, *it)
	}
	for _, b := range m.buyers {
		snap.Buyers = append(snap.Buyers, *b)
	}
	copy(snap.Facts, m.facts)
	return snap, nil
}
