package platform

import (
	"os"
	"testing"

	"github.com/etnz/gfsync"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// configured returns configs resolving every asset and account of the testdata.
func configured() gfsync.Configs {
	return gfsync.Configs{
		Settings: gfsync.DefaultSettings(),
		Assets: gfsync.NewAssetConfigs(
			gfsync.AssetConfig{Name: "Amundi Monetaire", Symbol: "0P0000MON.F"},
			gfsync.AssetConfig{Name: "Amundi Actions Monde", Symbol: "0P0000ACT.F"},
			gfsync.AssetConfig{Name: "332111", Symbol: "AAPL"},
			gfsync.AssetConfig{Name: "1153605", Symbol: "IWDA.AS"},
		),
		Platforms: gfsync.NewPlatformConfigs(
			gfsync.PlatformConfig{Name: "Amundi", Accounts: map[string]string{"PEE": "gf-pee"}},
			gfsync.PlatformConfig{Name: "Degiro", Accounts: map[string]string{gfsync.DefaultAccount: "gf-degiro"}, Currency: "USD"},
		),
	}
}

func ids(txns []gfsync.Transaction) []string {
	list := make([]string, 0, len(txns))
	for _, tx := range txns {
		list = append(list, tx.ID)
	}
	return list
}
