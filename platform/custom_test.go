package platform

import (
	"fmt"
	"testing"

	"github.com/etnz/gfsync"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var brokerRules = gfsync.ScrapeRules{
	URLPrefix:   "https://broker.example/api/history",
	Items:       "$.result.items[*]",
	NewestFirst: true,
	Date:        "$.when",
	DateLayout:  "02/01/2006",
	Type:        "$.kind",
	Types:       map[string]gfsync.ActivityType{"achat": gfsync.Buy, "vente": gfsync.Sell},
	Asset:       "$.instrument.name",
	Quantity:    "$.qty",
	UnitPrice:   "$.price",
	Fee:         "$.fees",
}

const brokerBody = `{"result":{"items":[
	{"when":"03/02/2025","kind":"vente","instrument":{"name":"ACME"},"qty":"-2","price":"12,50","fees":"1"},
	{"when":"03/02/2025","kind":"dividende","instrument":{"name":"ACME"},"qty":"0","price":"0"},
	{"when":"01/02/2025","kind":"achat","instrument":{"name":"ACME"},"qty":5,"price":10.25}
]}}`

func brokerConfigs() gfsync.Configs {
	return gfsync.Configs{
		Settings: gfsync.DefaultSettings(),
		Assets:   gfsync.NewAssetConfigs(gfsync.AssetConfig{Name: "ACME", Symbol: "ACME.PA"}),
		Platforms: gfsync.NewPlatformConfigs(gfsync.PlatformConfig{
			Name:     "Broker",
			Accounts: map[string]string{gfsync.DefaultAccount: "gf-broker"},
			Rules:    &brokerRules,
		}),
	}
}

func TestCustom(t *testing.T) {
	p, err := Custom("Broker", brokerRules)
	if err != nil {
		t.Fatalf("Custom() error = %v", err)
	}
	txns, missing, err := p.Parse([]byte(brokerBody), brokerConfigs())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !missing.Empty() {
		t.Fatalf("Parse() missing = %v", missing)
	}
	if len(txns) != 2 {
		t.Fatalf("Parse() returned %d transactions, want 2", len(txns))
	}
	buy, sell := txns[0], txns[1]
	if buy.Type != gfsync.Buy || !buy.UnitPrice.Equal(decimal.RequireFromString("10.25")) {
		t.Errorf("buy = %+v", buy)
	}
	if sell.Type != gfsync.Sell || !sell.Quantity.Equal(decimal.NewFromInt(2)) || !sell.UnitPrice.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("sell = %+v", sell)
	}
	if sell.Symbol != "ACME.PA" || sell.AccountID != "gf-broker" || sell.Currency != "EUR" {
		t.Errorf("sell resolution = %s %s %s", sell.Symbol, sell.AccountID, sell.Currency)
	}

	// Identities are stable across scrapes.
	again, _, _ := p.Parse([]byte(brokerBody), brokerConfigs())
	if diff := cmp.Diff(ids(txns), ids(again)); diff != "" {
		t.Errorf("identities changed between scrapes (-first +second):\n%s", diff)
	}
	if buy.ID == sell.ID {
		t.Errorf("distinct records share the identity %s", buy.ID)
	}
}

func TestCustomInvalidRules(t *testing.T) {
	if _, err := Custom("Broken", gfsync.ScrapeRules{URLPrefix: "broker"}); err == nil {
		t.Error("Custom() with incomplete rules must fail")
	}
	rules := brokerRules
	rules.Asset = "$.instrument[name"
	if _, err := Custom("Broken", rules); err == nil {
		t.Error("Custom() with an invalid JSONPath must fail")
	}
}

func TestCustomItemsNotAList(t *testing.T) {
	rules := brokerRules
	rules.Items = "$.result.items"
	p, err := Custom("Broker", rules)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Parse([]byte(`{"result":{"items":{"when":"01/02/2025"}}}`), brokerConfigs()); err == nil {
		t.Error("Parse() must fail when items is not a list")
	}
}

func TestCustomIDs(t *testing.T) {
	rules := brokerRules
	rules.ID = "$.ref"
	p, err := Custom("Broker", rules)
	if err != nil {
		t.Fatal(err)
	}
	body := `{"result":{"items":[{"ref":"%s","when":"01/02/2025","kind":"achat","instrument":{"name":"ACME"},"qty":5,"price":10.25}]}}`

	txns, _, err := p.Parse([]byte(fmt.Sprintf(body, "OP-1")), brokerConfigs())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	imp := gfsync.CreateImport(txns, gfsync.DefaultSettings(), txns[0].Date)
	if diff := cmp.Diff([]string{"OP-1"}, imp.IDs()); diff != "" {
		t.Errorf("exported identities mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := p.Parse([]byte(fmt.Sprintf(body, "OP | 1")), brokerConfigs()); err == nil {
		t.Error("Parse() must fail on an id that cannot be exported")
	}
}
