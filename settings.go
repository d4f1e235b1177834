package gfsync

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Settings holds the user preferences.
type Settings struct {
	DataSource string `json:"dataSource"` // DataSource of the symbols in Ghostfolio, e.g. "YAHOO".
	Currency   string `json:"currency"`   // Currency used when neither the platform nor its config tells.
	ExportDir  string `json:"exportDir"`  // ExportDir receives exported files.
}

// DefaultSettings returns the settings used before the user saved any.
func DefaultSettings() Settings {
	return Settings{DataSource: "YAHOO", Currency: "EUR", ExportDir: "."}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	var errs error
	if s.DataSource == "" {
		errs = errors.Join(errs, errors.New("data source is missing"))
	}
	if err := ValidateCurrency(s.Currency); err != nil {
		errs = errors.Join(errs, err)
	}
	if s.ExportDir == "" {
		errs = errors.Join(errs, errors.New("export directory is missing"))
	}
	return errs
}

// GhostfolioConfig holds the connection to a Ghostfolio instance.
type GhostfolioConfig struct {
	Host        string `json:"host"`        // Host is the base URL, e.g. "https://ghostfol.io".
	AccessToken string `json:"accessToken"` // AccessToken is the user's security token.
}

// Configured reports whether both fields are set.
func (g GhostfolioConfig) Configured() bool { return g.Host != "" && g.AccessToken != "" }

// Validate checks the ghostfolio config.
func (g GhostfolioConfig) Validate() error {
	u, err := url.Parse(g.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid ghostfolio host %q", g.Host)
	}
	if g.AccessToken == "" {
		return errors.New("ghostfolio access token is missing")
	}
	return nil
}

// ValidateCurrency checks that code is a known ISO 4217 currency.
func ValidateCurrency(code string) error {
	if code == "" {
		return errors.New("currency is missing")
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown currency %q", code)
	}
	return nil
}

// FormatAmount formats value in currency with the currency's own fraction and
// symbol. Unknown currencies fall back to the plain decimal and the code.
func FormatAmount(value decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return value.String() + " " + currency
	}
	minor := value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
