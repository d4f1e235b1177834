// Package platform turns intercepted trading platform responses into
// gfsync transactions.
//
// Each supported platform is a Platform record: it tells whether it owns a
// request URL and parses the body of the responses it owns. Records are kept
// in a Table and dispatched by first match.
package platform

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync"
)

// ParseFunc parses a response body into transactions ordered oldest first.
//
// Unresolved configuration is recorded in the returned report, it is not an
// error. An error means the body could not be decoded at all.
type ParseFunc func(body []byte, cfg gfsync.Configs) ([]gfsync.Transaction, gfsync.MissingReport, error)

// Platform describes a scrapeable trading platform.
type Platform struct {
	ID         string // ID is the lower case name, used in store keys.
	Name       string // Name as displayed to the user.
	TxnPageURL string // TxnPageURL is the page a user opens to list transactions.
	MatchesURL func(u *url.URL) bool
	Parse      ParseFunc
}

// FindNewTxns parses body and reconciles the transactions against last.
func (p Platform) FindNewTxns(body []byte, last *gfsync.Transaction, cfg gfsync.Configs) (gfsync.Reconciliation, error) {
	txns, missing, err := p.Parse(body, cfg)
	if err != nil {
		return gfsync.Reconciliation{}, fmt.Errorf("cannot parse %s response: %w", p.Name, err)
	}
	log.Debug("parsed response", "platform", p.Name, "transactions", len(txns), "missing", len(missing))
	return gfsync.Reconcile(txns, missing, last), nil
}

// Builtins returns the platforms with a dedicated parser, in dispatch order.
func Builtins() []Platform {
	return []Platform{Amundi(), Degiro()}
}

// Table is the ordered dispatch table of platforms.
type Table []Platform

// NewTable returns the builtin platforms followed by the custom platforms
// declared in configs, ordered by name.
func NewTable(configs *gfsync.PlatformConfigs) Table {
	t := Table(Builtins())
	for _, cfg := range configs.Custom() {
		if _, exists := t.ByName(cfg.Name); exists {
			log.Warn("scrape rules ignored, the platform has a dedicated parser", "platform", cfg.Name)
			continue
		}
		p, err := Custom(cfg.Name, *cfg.Rules)
		if err != nil {
			log.Error("invalid scrape rules", "platform", cfg.Name, "err", err)
			continue
		}
		t = append(t, p)
	}
	return t
}

// ByURL returns the first platform owning rawURL.
func (t Table) ByURL(rawURL string) (Platform, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		log.Debug("ignoring invalid url", "url", rawURL, "err", err)
		return Platform{}, false
	}
	i := slices.IndexFunc(t, func(p Platform) bool { return p.MatchesURL(u) })
	if i < 0 {
		return Platform{}, false
	}
	return t[i], true
}

// ByName returns the platform name, case-insensitively.
func (t Table) ByName(name string) (Platform, bool) {
	i := slices.IndexFunc(t, func(p Platform) bool { return strings.EqualFold(p.Name, name) })
	if i < 0 {
		return Platform{}, false
	}
	return t[i], true
}

// Names returns the platform names in dispatch order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for _, p := range t {
		names = append(names, p.Name)
	}
	return names
}

// hostPath returns a MatchesURL function matching host and a path prefix.
func hostPath(host, pathPrefix string) func(*url.URL) bool {
	return func(u *url.URL) bool {
		return strings.EqualFold(u.Hostname(), host) && strings.HasPrefix(u.Path, pathPrefix)
	}
}

// sortByDate orders txns oldest first, keeping the order of same-date ones.
func sortByDate(txns []gfsync.Transaction) {
	slices.SortStableFunc(txns, func(a, b gfsync.Transaction) int { return a.Date.Compare(b.Date) })
}
