package gfsync

import (
	"context"
	"fmt"
)

// Tracker keeps the last imported transaction of a platform.
type Tracker struct {
	store    Store
	platform string
}

// NewTracker returns the tracker of platform persisted in s.
func NewTracker(s Store, platform string) *Tracker {
	return &Tracker{store: s, platform: platform}
}

// Get returns the last imported transaction, or nil if there is none yet.
func (t *Tracker) Get(ctx context.Context) (*Transaction, error) {
	var tx Transaction
	found, err := load(ctx, t.store, KeyLastTxn(t.platform), &tx)
	if err != nil || !found {
		return nil, err
	}
	return &tx, nil
}

// Set records tx as the last imported transaction.
//
// It must only be called once the user confirmed the import succeeded.
func (t *Tracker) Set(ctx context.Context, tx Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("cannot mark a transaction without ID as imported on %s", t.platform)
	}
	if err := t.store.Save(ctx, KeyLastTxn(t.platform), tx); err != nil {
		return fmt.Errorf("cannot save last transaction of %s: %w", t.platform, err)
	}
	return nil
}

// Reset forgets the last imported transaction, so that the next
// reconciliation treats every scraped transaction as new.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := t.store.Delete(ctx, KeyLastTxn(t.platform)); err != nil {
		return fmt.Errorf("cannot reset last transaction of %s: %w", t.platform, err)
	}
	return nil
}
