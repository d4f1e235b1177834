package gfsync

import (
	"slices"

	"github.com/charmbracelet/log"
)

// Reconciliation is the outcome of comparing scraped transactions with the
// last imported one.
type Reconciliation struct {
	Txns           []Transaction `json:"txns"`           // Txns is the whole scraped sequence, oldest first.
	NewTxns        []Transaction `json:"newTxns"`        // NewTxns have not been imported yet, oldest first.
	LatestTxnIndex int           `json:"latestTxnIndex"` // LatestTxnIndex is the index of the newest transaction in Txns, -1 if none.
	Missing        MissingReport `json:"missing,omitempty"`
}

// Latest returns the newest scraped transaction, the one to mark as imported.
func (r Reconciliation) Latest() (Transaction, bool) {
	if r.LatestTxnIndex < 0 || r.LatestTxnIndex >= len(r.Txns) {
		return Transaction{}, false
	}
	return r.Txns[r.LatestTxnIndex], true
}

// Reconcile computes the transactions of txns newer than last.
//
// txns must be ordered oldest first. If missing is not empty, nothing is
// reconciled: the result carries only the report. A nil last means nothing
// was ever imported and every transaction is new.
//
// When last is not in txns, the transactions dated at or after last.Date are
// new: those sharing last's date are offered again, to be checked by the user.
func Reconcile(txns []Transaction, missing MissingReport, last *Transaction) Reconciliation {
	if !missing.Empty() {
		return Reconciliation{NewTxns: []Transaction{}, LatestTxnIndex: -1, Missing: missing}
	}
	r := Reconciliation{Txns: txns, LatestTxnIndex: len(txns) - 1}
	if last == nil {
		r.NewTxns = txns
		return r
	}

	if i := slices.IndexFunc(txns, func(tx Transaction) bool { return tx.ID == last.ID }); i >= 0 {
		r.NewTxns = txns[i+1:]
		return r
	}

	// The marker is not in this page: keep what is not older than it, ties included.
	log.Warn("last transaction not found in the scraped list, comparing dates", "id", last.ID, "date", last.Date)
	i := slices.IndexFunc(txns, func(tx Transaction) bool { return !tx.Date.Before(last.Date) })
	if i < 0 {
		r.NewTxns = []Transaction{}
		return r
	}
	r.NewTxns = txns[i:]
	return r
}
