package gfsync

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// this file contains the Ghostfolio import format: the document a user
// imports in Ghostfolio, and that the sync extension posts to its API.

// ImportVersion is written in the meta section of exported documents.
const ImportVersion = "gfsync-1"

// ghostfolioTime is the date layout of Ghostfolio exports.
const ghostfolioTime = "2006-01-02T15:04:05.000Z07:00"

// commentSep separates the transaction identity from its memo in comments.
const commentSep = " | "

// Import is a Ghostfolio import document.
type Import struct {
	Meta       ImportMeta `json:"meta"`
	Activities []Activity `json:"activities"`
}

// ImportMeta describes the document.
type ImportMeta struct {
	Date    time.Time `json:"date"`
	Version string    `json:"version"`
}

// Activity is a single Ghostfolio activity.
type Activity struct {
	AccountID  string          `json:"accountId"`
	Comment    string          `json:"comment"`
	Currency   string          `json:"currency"`
	DataSource string          `json:"dataSource"`
	Date       time.Time       `json:"date"`
	Fee        decimal.Decimal `json:"fee"`
	Quantity   decimal.Decimal `json:"quantity"`
	Symbol     string          `json:"symbol"`
	Type       ActivityType    `json:"type"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// MarshalJSON implements the json.Marshaler interface for Activity.
func (a Activity) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("accountId", a.AccountID)
	w.Append("comment", a.Comment)
	w.Append("currency", a.Currency)
	w.Append("dataSource", a.DataSource)
	w.Append("date", a.Date.UTC().Format(ghostfolioTime))
	w.Append("fee", a.Fee)
	w.Append("quantity", a.Quantity)
	w.Append("symbol", a.Symbol)
	w.Append("type", a.Type)
	w.Append("unitPrice", a.UnitPrice)
	return w.MarshalJSON()
}

// CheckID reports an error if id cannot be recovered from an activity
// comment.
func CheckID(id string) error {
	if strings.Contains(id, commentSep) {
		return fmt.Errorf("id %q contains %q", id, commentSep)
	}
	return nil
}

// ID returns the identity of the transaction this activity was created from.
func (a Activity) ID() string {
	id, _, _ := strings.Cut(a.Comment, commentSep)
	return id
}

// CreateImport creates the Ghostfolio import document of txns.
func CreateImport(txns []Transaction, settings Settings, now time.Time) Import {
	imp := Import{
		Meta:       ImportMeta{Date: now.UTC(), Version: ImportVersion},
		Activities: make([]Activity, 0, len(txns)),
	}
	for _, tx := range txns {
		comment := tx.ID
		if tx.Memo != "" {
			comment += commentSep + tx.Memo
		}
		imp.Activities = append(imp.Activities, Activity{
			AccountID:  tx.AccountID,
			Comment:    comment,
			Currency:   tx.Currency,
			DataSource: settings.DataSource,
			Date:       tx.Date,
			Fee:        tx.Fee,
			Quantity:   tx.Quantity,
			Symbol:     tx.Symbol,
			Type:       tx.Type,
			UnitPrice:  tx.UnitPrice,
		})
	}
	return imp
}

// IDs returns the transaction identities of the activities, in order.
func (imp Import) IDs() []string {
	ids := make([]string, 0, len(imp.Activities))
	for _, a := range imp.Activities {
		ids = append(ids, a.ID())
	}
	return ids
}

// ExportFilename returns the base name of the export file of a platform.
func ExportFilename(platform string) string {
	return strings.ToLower(platform) + "-transactions"
}

// EncodeImport writes imp as indented JSON.
func EncodeImport(w io.Writer, imp Import) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(imp); err != nil {
		return fmt.Errorf("cannot encode ghostfolio import: %w", err)
	}
	return nil
}

// ParseImport reads a Ghostfolio import document.
func ParseImport(r io.Reader) (Import, error) {
	var imp Import
	if err := json.NewDecoder(r).Decode(&imp); err != nil {
		return Import{}, fmt.Errorf("cannot decode ghostfolio import: %w", err)
	}
	return imp, nil
}
