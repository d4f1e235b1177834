package gfsync

import "slices"

// Configuration categories that can be reported as missing.
const (
	ConfigsAsset    = "Configs.Asset"    // an asset name has no symbol.
	ConfigsPlatform = "Configs.Platform" // a platform account has no Ghostfolio account.
)

// MissingConfig lists the raw values of one configuration category that
// could not be resolved while parsing.
type MissingConfig struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// MissingReport is the list of configuration categories that could not be
// resolved. A non-empty report makes the reconciliation fail closed.
type MissingReport []MissingConfig

// Empty reports whether nothing is missing.
func (m MissingReport) Empty() bool { return len(m) == 0 }

// Add records value under the category name. Values are kept once, in
// encounter order.
func (m *MissingReport) Add(name, value string) {
	for i := range *m {
		item := &(*m)[i]
		if item.Name != name {
			continue
		}
		if !slices.Contains(item.Values, value) {
			item.Values = append(item.Values, value)
		}
		return
	}
	*m = append(*m, MissingConfig{Name: name, Values: []string{value}})
}

// Values returns the values recorded under name.
func (m MissingReport) Values(name string) []string {
	for _, item := range m {
		if item.Name == name {
			return item.Values
		}
	}
	return nil
}
