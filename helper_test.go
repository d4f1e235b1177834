package gfsync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	records map[string][]byte
	failing error // when set, Save returns it.
}

func newMemStore() *memStore { return &memStore{records: make(map[string][]byte)} }

func (m *memStore) Load(_ context.Context, key string, v any) error {
	data, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (m *memStore) Save(_ context.Context, key string, v any) error {
	if m.failing != nil {
		return m.failing
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.records[key] = data
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	if m.failing != nil {
		return m.failing
	}
	delete(m.records, key)
	return nil
}

var errDiskFull = errors.New("disk full")

// day returns midnight UTC of the given day.
func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// txn is a helper for tests to create a transaction.
func txn(id string, on time.Time) Transaction {
	return Transaction{
		ID:        id,
		Date:      on,
		Type:      Buy,
		Asset:     "Fund " + id,
		Symbol:    "F" + id,
		AccountID: "acc-1",
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: decimal.RequireFromString("10.5"),
		Currency:  "EUR",
	}
}

func ids(txns []Transaction) []string {
	list := make([]string, 0, len(txns))
	for _, tx := range txns {
		list = append(list, tx.ID)
	}
	return list
}
