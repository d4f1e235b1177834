// Package renderer renders the gfsync views to markdown.
//
// Each view is a text/template stored in templates/, possibly using shared
// partials. Views are plain markdown so that they can be printed in a
// terminal or converted to HTML.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/gfsync"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"amount": func(v decimal.Decimal, currency string) string { return gfsync.FormatAmount(v, currency) },
	"date":   func(t time.Time) string { return t.Format(time.DateOnly) },
	"join":   strings.Join,
	"list":   func(tx gfsync.Transaction) []gfsync.Transaction { return []gfsync.Transaction{tx} },
	"orDash": func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	},
}

// Platform is an entry of the platforms view.
type Platform struct {
	Name       string
	TxnPageURL string
	Current    bool
}

// Platforms is the view of the supported platforms.
type Platforms struct {
	Platforms []Platform
}

// LastTxn is the view of the last imported transaction of a platform.
type LastTxn struct {
	Platform string
	Txn      *gfsync.Transaction // nil when nothing was imported yet.
}

// NewTxns is the view of the reconciliation of a platform.
type NewTxns struct {
	Platform string
	NewTxns  []gfsync.Transaction
	Missing  gfsync.MissingReport
	Latest   *gfsync.Transaction // Latest is the transaction to mark as imported.
}

// Total returns the sum of the new transactions amounts per currency.
func (v NewTxns) Total() string {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, tx := range v.NewTxns {
		if _, ok := totals[tx.Currency]; !ok {
			order = append(order, tx.Currency)
		}
		totals[tx.Currency] = totals[tx.Currency].Add(tx.Amount())
	}
	parts := make([]string, 0, len(order))
	for _, cur := range order {
		parts = append(parts, gfsync.FormatAmount(totals[cur], cur))
	}
	return strings.Join(parts, " + ")
}

// Configs is the view of the asset and platform configs.
type Configs struct {
	Assets    []gfsync.AssetConfig
	Platforms []gfsync.PlatformConfig
}

// Settings is the view of the settings and the Ghostfolio connection.
type Settings struct {
	Settings   gfsync.Settings
	Ghostfolio gfsync.GhostfolioConfig
}

// RenderPlatforms renders the platforms view.
func RenderPlatforms(v Platforms) string {
	return renderTemplate("platforms", "platforms.md", nil, v)
}

// RenderLastTxn renders the last imported transaction view.
func RenderLastTxn(v LastTxn) string {
	partials := map[string]string{"transactions_table": "transactions_table.md"}
	return renderTemplate("lastTxn", "last_txn.md", partials, v)
}

// RenderNewTxns renders the new transactions view.
func RenderNewTxns(v NewTxns) string {
	partials := map[string]string{
		"transactions_table": "transactions_table.md",
		"missing":            "missing.md",
	}
	return renderTemplate("newTxns", "new_txns.md", partials, v)
}

// RenderConfigs renders the configs view.
func RenderConfigs(v Configs) string {
	partials := map[string]string{"asset_configs": "asset_configs.md"}
	return renderTemplate("configs", "configs.md", partials, v)
}

// RenderSettings renders the settings view.
func RenderSettings(v Settings) string {
	return renderTemplate("settings", "settings.md", nil, v)
}

// RenderSymbols renders a list of lookup results.
func RenderSymbols(query string, symbols []Symbol) string {
	return renderTemplate("symbols", "symbols.md", nil, struct {
		Query   string
		Symbols []Symbol
	}{query, symbols})
}

// RenderAccounts renders the Ghostfolio accounts, to pick the IDs of
// platform accounts from.
func RenderAccounts(accounts []Account) string {
	return renderTemplate("accounts", "accounts.md", nil, accounts)
}

// Account is a Ghostfolio account.
type Account struct {
	ID, Name, Currency string
}

// Symbol is a lookup result.
type Symbol struct {
	Symbol, Name, Currency, DataSource string
}

func newTemplate(name string) *template.Template { return template.New(name).Funcs(funcs) }

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := newTemplate(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
