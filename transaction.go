package gfsync

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ActivityType is a typed string for the kinds of activity Ghostfolio imports.
type ActivityType string

// Activity types known by Ghostfolio.
const (
	Buy      ActivityType = "BUY"
	Sell     ActivityType = "SELL"
	Dividend ActivityType = "DIVIDEND"
	Fee      ActivityType = "FEE"
	Interest ActivityType = "INTEREST"
)

// ParseActivityType parses a case-insensitive activity type.
func ParseActivityType(s string) (ActivityType, error) {
	switch t := ActivityType(strings.ToUpper(strings.TrimSpace(s))); t {
	case Buy, Sell, Dividend, Fee, Interest:
		return t, nil
	}
	return "", fmt.Errorf("unknown activity type %q", s)
}

// Transaction is a single activity scraped from a platform.
//
// A Transaction is immutable once observed: adapters create them, the
// reconciliation only selects among them.
type Transaction struct {
	ID        string          // ID is the platform's stable identity of the transaction.
	Date      time.Time       // Date orders transactions within a platform.
	Type      ActivityType    // Type of activity.
	Account   string          // Account is the raw platform account label (e.g. a savings plan).
	AccountID string          // AccountID is the Ghostfolio account resolved from Account.
	Asset     string          // Asset is the raw asset name as the platform shows it.
	Symbol    string          // Symbol is the external symbol resolved from Asset.
	Quantity  decimal.Decimal // Quantity of units.
	UnitPrice decimal.Decimal // UnitPrice in Currency.
	Fee       decimal.Decimal // Fee in Currency.
	Currency  string          // Currency is an ISO 4217 code.
	Memo      string          // Memo is a free text coming from the platform.
}

// Amount returns Quantity * UnitPrice.
func (t Transaction) Amount() decimal.Decimal { return t.Quantity.Mul(t.UnitPrice) }

// Equal reports whether both transactions carry the same values.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID && t.Date.Equal(o.Date) && t.Type == o.Type &&
		t.Account == o.Account && t.AccountID == o.AccountID &&
		t.Asset == o.Asset && t.Symbol == o.Symbol &&
		t.Quantity.Equal(o.Quantity) && t.UnitPrice.Equal(o.UnitPrice) && t.Fee.Equal(o.Fee) &&
		t.Currency == o.Currency && t.Memo == o.Memo
}

// jtransaction is the persisted form of a Transaction.
type jtransaction struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Type      ActivityType    `json:"type"`
	Account   string          `json:"account"`
	AccountID string          `json:"accountId"`
	Asset     string          `json:"asset"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Fee       decimal.Decimal `json:"fee"`
	Currency  string          `json:"currency"`
	Memo      string          `json:"memo"`
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
// Fields keep a fixed order and empty optional fields are omitted.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("date", t.Date.UTC().Format(time.RFC3339))
	w.Append("type", t.Type)
	w.Optional("account", t.Account)
	w.Optional("accountId", t.AccountID)
	w.Append("asset", t.Asset)
	w.Optional("symbol", t.Symbol)
	w.Append("quantity", t.Quantity)
	w.Append("unitPrice", t.UnitPrice)
	w.Optional("fee", t.Fee)
	w.Append("currency", t.Currency)
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j jtransaction
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*t = Transaction(j)
	return nil
}
