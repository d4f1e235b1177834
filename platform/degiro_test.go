package platform

import (
	"testing"

	"github.com/etnz/gfsync"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestParseDegiro(t *testing.T) {
	txns, missing, err := parseDegiro(readTestdata(t, "degiro.json"), configured())
	if err != nil {
		t.Fatalf("parseDegiro() error = %v", err)
	}
	if !missing.Empty() {
		t.Fatalf("parseDegiro() missing = %v", missing)
	}
	if diff := cmp.Diff([]string{"9001", "9002"}, ids(txns)); diff != "" {
		t.Fatalf("parseDegiro() ids mismatch (-want +got):\n%s", diff)
	}
	sell := txns[1]
	if sell.Type != gfsync.Sell || sell.Symbol != "AAPL" || sell.AccountID != "gf-degiro" || sell.Currency != "USD" {
		t.Errorf("sell = %+v", sell)
	}
	if !sell.Quantity.Equal(decimal.NewFromInt(3)) || !sell.Fee.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("sell quantity/fee = %s/%s, want 3/2.5", sell.Quantity, sell.Fee)
	}
}

func TestParseDegiroUnknownSide(t *testing.T) {
	body := []byte(`{"data":[{"id":1,"productId":2,"date":"2025-01-01","buysell":"X","price":1,"quantity":1}]}`)
	if _, _, err := parseDegiro(body, configured()); err == nil {
		t.Error("parseDegiro() with an unknown side must fail")
	}
}
