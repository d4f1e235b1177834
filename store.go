package gfsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrNotFound is returned by a Store for keys that have never been saved.
var ErrNotFound = fmt.Errorf("record not found: %w", fs.ErrNotExist)

// Store persists opaque JSON-serializable records by key.
//
// Keys are slash separated, lower case words: "settings", "last-txn/amundi".
type Store interface {
	Load(ctx context.Context, key string, v any) error
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

// Record keys.
const (
	KeySettings        = "settings"
	KeyAssetConfigs    = "asset-configs"
	KeyPlatformConfigs = "platform-configs"
	KeyGhostfolio      = "ghostfolio"
)

// KeyLastTxn returns the key of the last transaction marker of platform.
func KeyLastTxn(platform string) string { return "last-txn/" + strings.ToLower(platform) }

// KeyPending returns the key of the pending reconciliation of platform.
func KeyPending(platform string) string { return "pending/" + strings.ToLower(platform) }

// load reads key into v, returning found=false instead of ErrNotFound.
func load(ctx context.Context, s Store, key string, v any) (found bool, err error) {
	err = s.Load(ctx, key, v)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot load %q: %w", key, err)
	}
	return true, nil
}

// LoadSettings loads the settings, defaults are returned if none was saved.
func LoadSettings(ctx context.Context, s Store) (Settings, error) {
	settings := DefaultSettings()
	if _, err := load(ctx, s, KeySettings, &settings); err != nil {
		return DefaultSettings(), err
	}
	return settings, nil
}

// SaveSettings saves the settings after validating them.
func SaveSettings(ctx context.Context, s Store, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return s.Save(ctx, KeySettings, settings)
}

// LoadAssetConfigs loads the asset configs, empty if none was saved.
func LoadAssetConfigs(ctx context.Context, s Store) (*AssetConfigs, error) {
	configs := NewAssetConfigs()
	if _, err := load(ctx, s, KeyAssetConfigs, configs); err != nil {
		return NewAssetConfigs(), err
	}
	return configs, nil
}

// SaveAssetConfigs saves the asset configs.
func SaveAssetConfigs(ctx context.Context, s Store, configs *AssetConfigs) error {
	return s.Save(ctx, KeyAssetConfigs, configs)
}

// LoadPlatformConfigs loads the platform configs, empty if none was saved.
func LoadPlatformConfigs(ctx context.Context, s Store) (*PlatformConfigs, error) {
	configs := NewPlatformConfigs()
	if _, err := load(ctx, s, KeyPlatformConfigs, configs); err != nil {
		return NewPlatformConfigs(), err
	}
	return configs, nil
}

// SavePlatformConfigs saves the platform configs.
func SavePlatformConfigs(ctx context.Context, s Store, configs *PlatformConfigs) error {
	return s.Save(ctx, KeyPlatformConfigs, configs)
}

// LoadGhostfolioConfig loads the Ghostfolio connection, zero if none was saved.
func LoadGhostfolioConfig(ctx context.Context, s Store) (GhostfolioConfig, error) {
	var cfg GhostfolioConfig
	if _, err := load(ctx, s, KeyGhostfolio, &cfg); err != nil {
		return GhostfolioConfig{}, err
	}
	return cfg, nil
}

// SaveGhostfolioConfig saves the Ghostfolio connection after validating it.
func SaveGhostfolioConfig(ctx context.Context, s Store, cfg GhostfolioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.Save(ctx, KeyGhostfolio, cfg)
}

// LoadPending loads the pending reconciliation of platform, nil if there is none.
func LoadPending(ctx context.Context, s Store, platform string) (*Reconciliation, error) {
	var r Reconciliation
	found, err := load(ctx, s, KeyPending(platform), &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

// SavePending saves the pending reconciliation of platform.
func SavePending(ctx context.Context, s Store, platform string, r Reconciliation) error {
	return s.Save(ctx, KeyPending(platform), r)
}

// ClearPending deletes the pending reconciliation of platform.
func ClearPending(ctx context.Context, s Store, platform string) error {
	return s.Delete(ctx, KeyPending(platform))
}
