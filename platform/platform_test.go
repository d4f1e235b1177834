package platform

import (
	"testing"
	"time"

	"github.com/etnz/gfsync"
	"github.com/google/go-cmp/cmp"
)

func TestTableByURL(t *testing.T) {
	table := NewTable(brokerConfigs().Platforms)

	tests := []struct {
		url  string
		want string
	}{
		{"https://epargnant.amundi-ee.com/api/individu/operations?metier=ESR&offset=0&limit=100", "Amundi"},
		{"https://trader.degiro.nl/reporting/secure/v4/transactions?fromDate=01/01/2024", "Degiro"},
		{"https://broker.example/api/history?page=2", "Broker"},
		{"https://epargnant.amundi-ee.com/api/individu/produits", ""},
		{"https://example.com/", ""},
		{"::not a url", ""},
	}
	for _, tt := range tests {
		p, ok := table.ByURL(tt.url)
		if ok != (tt.want != "") || p.Name != tt.want {
			t.Errorf("ByURL(%q) = %q, %v want %q", tt.url, p.Name, ok, tt.want)
		}
	}

	if diff := cmp.Diff([]string{"Amundi", "Degiro", "Broker"}, table.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if p, ok := table.ByName("degiro"); !ok || p.ID != "degiro" {
		t.Errorf("ByName(degiro) = %v, %v", p.ID, ok)
	}
}

func TestTableFirstMatch(t *testing.T) {
	// A custom platform claiming the Amundi prefix never shadows the builtin one.
	rules := brokerRules
	rules.URLPrefix = "https://epargnant.amundi-ee.com/api"
	table := NewTable(gfsync.NewPlatformConfigs(gfsync.PlatformConfig{Name: "Shadow", Rules: &rules}))
	p, ok := table.ByURL("https://epargnant.amundi-ee.com/api/individu/operations")
	if !ok || p.Name != "Amundi" {
		t.Errorf("ByURL() = %q, want Amundi", p.Name)
	}
}

func TestFindNewTxns(t *testing.T) {
	p := Degiro()
	body := readTestdata(t, "degiro.json")

	r, err := p.FindNewTxns(body, nil, configured())
	if err != nil {
		t.Fatalf("FindNewTxns() error = %v", err)
	}
	if diff := cmp.Diff([]string{"9001", "9002"}, ids(r.NewTxns)); diff != "" {
		t.Errorf("FindNewTxns(nil) mismatch (-want +got):\n%s", diff)
	}

	latest, _ := r.Latest()
	r, err = p.FindNewTxns(body, &latest, configured())
	if err != nil {
		t.Fatalf("FindNewTxns() error = %v", err)
	}
	if len(r.NewTxns) != 0 || r.LatestTxnIndex != 1 {
		t.Errorf("FindNewTxns(latest) = %v, %d want nothing new and index 1", ids(r.NewTxns), r.LatestTxnIndex)
	}

	cfg := configured()
	cfg.Assets = gfsync.NewAssetConfigs()
	r, err = p.FindNewTxns(body, nil, cfg)
	if err != nil {
		t.Fatalf("FindNewTxns() error = %v", err)
	}
	if len(r.NewTxns) != 0 || r.LatestTxnIndex != -1 || r.Missing.Empty() {
		t.Errorf("FindNewTxns() without assets = %+v, want a missing report", r)
	}

	if _, err := p.FindNewTxns([]byte("not json"), nil, cfg); err == nil {
		t.Error("FindNewTxns() of an undecodable body must fail")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in, layout string
		want       time.Time
	}{
		{"2025-03-10", "", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"2025-03-10T08:30:00", "", time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)},
		{"2025-03-10T08:30:00Z", "", time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)},
		{"10/03/2025", "02/01/2006", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTime(tt.in, tt.layout)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("parseTime(%q, %q) = %v, %v want %v", tt.in, tt.layout, got, err, tt.want)
		}
	}
	if _, err := parseTime("tomorrow", ""); err == nil {
		t.Error("parseTime(tomorrow) must fail")
	}
}
