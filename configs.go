package gfsync

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// AssetConfig maps an asset name, as a platform displays it, to the
// external symbol Ghostfolio knows it by.
type AssetConfig struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// AssetConfigs is a collection of AssetConfig keyed by unique name, sorted by name.
type AssetConfigs struct {
	assets []AssetConfig
}

// NewAssetConfigs creates a collection from assets; later duplicates override earlier ones.
func NewAssetConfigs(assets ...AssetConfig) *AssetConfigs {
	c := &AssetConfigs{}
	for _, a := range assets {
		c.SetSymbol(a.Name, a.Symbol)
	}
	return c
}

// All returns a copy of all asset configs sorted by name.
func (c *AssetConfigs) All() []AssetConfig {
	if c == nil {
		return nil
	}
	return slices.Clone(c.assets)
}

// Len returns the number of assets.
func (c *AssetConfigs) Len() int {
	if c == nil {
		return 0
	}
	return len(c.assets)
}

func (c *AssetConfigs) index(name string) (int, bool) {
	return slices.BinarySearchFunc(c.assets, name, func(a AssetConfig, name string) int {
		return strings.Compare(a.Name, name)
	})
}

// Symbol returns the symbol of the asset name. ok is false if the asset is
// unknown or its symbol has not been filled yet.
func (c *AssetConfigs) Symbol(name string) (symbol string, ok bool) {
	if c == nil {
		return "", false
	}
	i, found := c.index(name)
	if !found || c.assets[i].Symbol == "" {
		return "", false
	}
	return c.assets[i].Symbol, true
}

// SetSymbol sets the symbol of asset name, adding the asset if needed.
func (c *AssetConfigs) SetSymbol(name, symbol string) {
	i, found := c.index(name)
	if found {
		c.assets[i].Symbol = symbol
		return
	}
	c.assets = slices.Insert(c.assets, i, AssetConfig{Name: name, Symbol: symbol})
}

// AddAssets adds names with an empty symbol. Known names are left untouched.
// It returns the number of assets actually added.
func (c *AssetConfigs) AddAssets(names ...string) (added int) {
	for _, name := range names {
		i, found := c.index(name)
		if found {
			continue
		}
		c.assets = slices.Insert(c.assets, i, AssetConfig{Name: name})
		added++
	}
	return added
}

// Unresolved returns the names of the assets without symbol.
func (c *AssetConfigs) Unresolved() []string {
	var names []string
	for _, a := range c.All() {
		if a.Symbol == "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// Clone returns a deep copy.
func (c *AssetConfigs) Clone() *AssetConfigs {
	return &AssetConfigs{assets: c.All()}
}

// MarshalJSON implements the json.Marshaler interface for AssetConfigs.
func (c *AssetConfigs) MarshalJSON() ([]byte, error) {
	assets := c.All()
	if assets == nil {
		assets = []AssetConfig{}
	}
	return json.Marshal(assets)
}

// UnmarshalJSON implements the json.Unmarshaler interface for AssetConfigs.
func (c *AssetConfigs) UnmarshalJSON(data []byte) error {
	var assets []AssetConfig
	if err := json.Unmarshal(data, &assets); err != nil {
		return err
	}
	*c = AssetConfigs{}
	for _, a := range assets {
		if _, found := c.index(a.Name); found {
			return fmt.Errorf("asset %q is defined twice", a.Name)
		}
		c.SetSymbol(a.Name, a.Symbol)
	}
	return nil
}

// DefaultAccount is the account label of platforms without sub-accounts, and
// the fallback of labels that are not configured.
const DefaultAccount = "default"

// ScrapeRules are JSONPath expressions extracting transactions from a
// response body. They turn a configured platform into a scrapeable one.
type ScrapeRules struct {
	URLPrefix   string                  `json:"urlPrefix"`             // URLPrefix identifies the responses to scrape.
	TxnPageURL  string                  `json:"txnPageUrl,omitempty"`  // TxnPageURL is the page listing transactions.
	Items       string                  `json:"items"`                 // Items selects the list of records, e.g. "$.data[*]".
	NewestFirst bool                    `json:"newestFirst,omitempty"` // NewestFirst tells the records are listed newest first.
	ID          string                  `json:"id,omitempty"`          // ID of a record, a name based UUID is used when empty.
	Date        string                  `json:"date"`
	DateLayout  string                  `json:"dateLayout,omitempty"` // DateLayout is a Go time layout, RFC 3339 by default.
	Type        string                  `json:"type"`
	Types       map[string]ActivityType `json:"types,omitempty"` // Types maps raw type values to activity types.
	Account     string                  `json:"account,omitempty"`
	Asset       string                  `json:"asset"`
	Quantity    string                  `json:"quantity"`
	UnitPrice   string                  `json:"unitPrice"`
	Fee         string                  `json:"fee,omitempty"`
	Currency    string                  `json:"currency,omitempty"`
}

// PlatformConfig holds the local configuration of a platform.
type PlatformConfig struct {
	Name     string            `json:"name"`
	Accounts map[string]string `json:"accounts"`           // Accounts maps platform account labels to Ghostfolio account IDs.
	Currency string            `json:"currency,omitempty"` // Currency used when the platform does not tell.
	Rules    *ScrapeRules      `json:"rules,omitempty"`
}

func (p PlatformConfig) clone() PlatformConfig {
	p.Accounts = maps.Clone(p.Accounts)
	if p.Rules != nil {
		r := *p.Rules
		r.Types = maps.Clone(r.Types)
		p.Rules = &r
	}
	return p
}

// PlatformConfigs is a collection of PlatformConfig keyed by case-insensitive name.
type PlatformConfigs struct {
	platforms map[string]PlatformConfig
}

// NewPlatformConfigs creates a collection from configs.
func NewPlatformConfigs(configs ...PlatformConfig) *PlatformConfigs {
	c := &PlatformConfigs{platforms: make(map[string]PlatformConfig)}
	for _, p := range configs {
		c.Set(p)
	}
	return c
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Get returns the config of the platform name.
func (c *PlatformConfigs) Get(name string) (PlatformConfig, bool) {
	if c == nil {
		return PlatformConfig{}, false
	}
	p, ok := c.platforms[key(name)]
	return p.clone(), ok
}

// Set adds or replaces a platform config.
func (c *PlatformConfigs) Set(p PlatformConfig) {
	if c.platforms == nil {
		c.platforms = make(map[string]PlatformConfig)
	}
	if p.Accounts == nil {
		p.Accounts = make(map[string]string)
	}
	c.platforms[key(p.Name)] = p.clone()
}

// All returns all platform configs sorted by name.
func (c *PlatformConfigs) All() []PlatformConfig {
	if c == nil {
		return nil
	}
	list := make([]PlatformConfig, 0, len(c.platforms))
	for _, k := range slices.Sorted(maps.Keys(c.platforms)) {
		list = append(list, c.platforms[k].clone())
	}
	return list
}

// Custom returns the platform configs carrying scrape rules, sorted by name.
func (c *PlatformConfigs) Custom() []PlatformConfig {
	var list []PlatformConfig
	for _, p := range c.All() {
		if p.Rules != nil {
			list = append(list, p)
		}
	}
	return list
}

// AccountID resolves a platform account label to its Ghostfolio account.
// Labels not configured fall back to the DefaultAccount.
func (c *PlatformConfigs) AccountID(platform, label string) (id string, ok bool) {
	p, found := c.Get(platform)
	if !found {
		return "", false
	}
	if label == "" {
		label = DefaultAccount
	}
	if id := p.Accounts[label]; id != "" {
		return id, true
	}
	if id := p.Accounts[DefaultAccount]; id != "" {
		return id, true
	}
	return "", false
}

// AddAccounts adds labels with an empty account ID to the platform, creating
// its config if needed. Known labels are left untouched.
func (c *PlatformConfigs) AddAccounts(platform string, labels ...string) (added int) {
	p, found := c.Get(platform)
	if !found {
		p = PlatformConfig{Name: platform, Accounts: make(map[string]string)}
	}
	for _, label := range labels {
		if _, known := p.Accounts[label]; known {
			continue
		}
		p.Accounts[label] = ""
		added++
	}
	c.Set(p)
	return added
}

// Clone returns a deep copy.
func (c *PlatformConfigs) Clone() *PlatformConfigs {
	return NewPlatformConfigs(c.All()...)
}

// MarshalJSON implements the json.Marshaler interface for PlatformConfigs.
func (c *PlatformConfigs) MarshalJSON() ([]byte, error) {
	all := c.All()
	if all == nil {
		all = []PlatformConfig{}
	}
	return json.Marshal(all)
}

// UnmarshalJSON implements the json.Unmarshaler interface for PlatformConfigs.
func (c *PlatformConfigs) UnmarshalJSON(data []byte) error {
	var all []PlatformConfig
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*c = PlatformConfigs{platforms: make(map[string]PlatformConfig)}
	for _, p := range all {
		if _, found := c.platforms[key(p.Name)]; found {
			return fmt.Errorf("platform %q is defined twice", p.Name)
		}
		c.Set(p)
	}
	return nil
}

// Configs is the snapshot of configuration a platform adapter parses with.
type Configs struct {
	Settings  Settings
	Assets    *AssetConfigs
	Platforms *PlatformConfigs
}

// Currency returns the currency of platform: its own config first, then the settings.
func (c Configs) Currency(platform string) string {
	if p, ok := c.Platforms.Get(platform); ok && p.Currency != "" {
		return p.Currency
	}
	return c.Settings.Currency
}

// Resolve fills tx.Symbol and tx.AccountID from the configuration, and
// records what cannot be resolved into missing.
func (c Configs) Resolve(platform string, tx *Transaction, missing *MissingReport) {
	if symbol, ok := c.Assets.Symbol(tx.Asset); ok {
		tx.Symbol = symbol
	} else {
		missing.Add(ConfigsAsset, tx.Asset)
	}

	label := tx.Account
	if label == "" {
		label = DefaultAccount
	}
	if id, ok := c.Platforms.AccountID(platform, label); ok {
		tx.AccountID = id
	} else {
		missing.Add(ConfigsPlatform, label)
	}
}
