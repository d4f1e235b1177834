// Package app holds the gfsync application state and the user actions
// that transform it.
//
// A Controller is the single owner of the State. Callers feed it with
// intercepted responses and user actions, it persists what must be and
// renders the views through a UI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync"
	"github.com/etnz/gfsync/ghostfolio"
	"github.com/etnz/gfsync/platform"
)

// Target identifies a place where a view is rendered.
type Target string

// Render targets.
const (
	TargetPlatforms Target = "id-platforms"
	TargetLastTxn   Target = "id-last-txn"
	TargetNewTxns   Target = "id-new-txns"
	TargetConfigs   Target = "id-configs"
	TargetSettings  Target = "id-settings"
)

// Targets lists the render targets in display order.
var Targets = []Target{TargetPlatforms, TargetLastTxn, TargetNewTxns, TargetConfigs, TargetSettings}

// UI displays views and notices to the user.
type UI interface {
	Render(target Target, markdown string)
	Success(msg string)
	Error(msg string)
}

// Importer imports activities in Ghostfolio.
type Importer interface {
	Import(ctx context.Context, imp gfsync.Import, dryRun bool) error
}

// State is the application state.
type State struct {
	Settings   gfsync.Settings
	Assets     *gfsync.AssetConfigs
	Platforms  *gfsync.PlatformConfigs
	Ghostfolio gfsync.GhostfolioConfig
	Current    string                 // Current is the name of the current platform, empty if none.
	LastTxn    *gfsync.Transaction    // LastTxn of the current platform.
	Pending    *gfsync.Reconciliation // Pending is the last successful reconciliation of the current platform.
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Store gfsync.Store
	UI    UI
	// Now defaults to time.Now.
	Now func() time.Time
	// NewImporter defaults to a Ghostfolio API client.
	NewImporter func(gfsync.GhostfolioConfig) (Importer, error)
}

// Controller owns the State and implements the user actions.
type Controller struct {
	store       gfsync.Store
	ui          UI
	now         func() time.Time
	newImporter func(gfsync.GhostfolioConfig) (Importer, error)

	state    State
	table    platform.Table
	importer Importer
}

// New loads the persisted state. Absent records yield defaults.
func New(ctx context.Context, deps Deps) (*Controller, error) {
	c := &Controller{
		store:       deps.Store,
		ui:          deps.UI,
		now:         deps.Now,
		newImporter: deps.NewImporter,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newImporter == nil {
		c.newImporter = func(cfg gfsync.GhostfolioConfig) (Importer, error) { return ghostfolio.New(cfg) }
	}

	var errs error
	var err error
	c.state.Settings, err = gfsync.LoadSettings(ctx, c.store)
	errs = errors.Join(errs, err)
	c.state.Assets, err = gfsync.LoadAssetConfigs(ctx, c.store)
	errs = errors.Join(errs, err)
	c.state.Platforms, err = gfsync.LoadPlatformConfigs(ctx, c.store)
	errs = errors.Join(errs, err)
	c.state.Ghostfolio, err = gfsync.LoadGhostfolioConfig(ctx, c.store)
	errs = errors.Join(errs, err)
	if errs != nil {
		return nil, fmt.Errorf("cannot load state: %w", errs)
	}

	c.table = platform.NewTable(c.state.Platforms)
	c.refreshImporter()
	return c, nil
}

// State returns a copy of the state.
func (c *Controller) State() State {
	s := c.state
	s.Assets = c.state.Assets.Clone()
	s.Platforms = c.state.Platforms.Clone()
	return s
}

// Table returns the platform dispatch table.
func (c *Controller) Table() platform.Table { return c.table }

// Configs returns the configuration adapters parse with.
func (c *Controller) Configs() gfsync.Configs {
	return gfsync.Configs{Settings: c.state.Settings, Assets: c.state.Assets, Platforms: c.state.Platforms}
}

func (c *Controller) refreshImporter() {
	c.importer = nil
	if !c.state.Ghostfolio.Configured() {
		return
	}
	imp, err := c.newImporter(c.state.Ghostfolio)
	if err != nil {
		log.Error("cannot create ghostfolio client", "err", err)
		return
	}
	c.importer = imp
}

func (c *Controller) tracker() *gfsync.Tracker { return gfsync.NewTracker(c.store, c.state.Current) }

// current returns the current platform.
func (c *Controller) current() (platform.Platform, error) {
	if c.state.Current == "" {
		return platform.Platform{}, errors.New("no platform selected")
	}
	p, ok := c.table.ByName(c.state.Current)
	if !ok {
		return platform.Platform{}, fmt.Errorf("unknown platform %q", c.state.Current)
	}
	return p, nil
}

// ProcessResponse handles an intercepted response. Responses of URLs no
// platform owns, and empty bodies, are ignored.
func (c *Controller) ProcessResponse(ctx context.Context, rawURL string, body []byte) error {
	p, ok := c.table.ByURL(rawURL)
	if !ok || len(body) == 0 {
		log.Debug("ignoring response", "url", rawURL, "size", len(body))
		return nil
	}
	log.Info("processing response", "platform", p.Name, "url", rawURL)
	c.state.Current = p.Name
	c.renderPlatforms()

	last, err := c.tracker().Get(ctx)
	if err != nil {
		c.ui.Error(fmt.Sprintf("Cannot read the last transaction of %s: %v", p.Name, err))
		return err
	}
	c.state.LastTxn = last
	c.renderLastTxn()

	r, err := p.FindNewTxns(body, last, c.Configs())
	if err != nil {
		c.ui.Error(fmt.Sprintf("Cannot read the %s response: %v", p.Name, err))
		return err
	}
	if !r.Missing.Empty() {
		c.state.Pending = nil
		c.renderNewTxns(r.Missing)
		var errs error
		if err := gfsync.ClearPending(ctx, c.store, p.Name); err != nil {
			errs = fmt.Errorf("cannot clear pending transactions: %w", err)
		}
		return errors.Join(errs, c.HandleMissing(ctx, r.Missing))
	}

	c.state.Pending = &r
	c.renderNewTxns(nil)
	if err := gfsync.SavePending(ctx, c.store, p.Name, r); err != nil {
		c.ui.Error(fmt.Sprintf("Failed to save the new transactions: %v", err))
		return fmt.Errorf("cannot save pending transactions: %w", err)
	}
	return nil
}

// HandleMissing adds placeholders for the missing configs so that the user
// can fill them in.
func (c *Controller) HandleMissing(ctx context.Context, report gfsync.MissingReport) error {
	var errs error
	handled := false
	for _, m := range report {
		switch m.Name {
		case gfsync.ConfigsAsset:
			handled = true
			assets := c.state.Assets.Clone()
			assets.AddAssets(m.Values...)
			c.state.Assets = assets
			if err := gfsync.SaveAssetConfigs(ctx, c.store, assets); err != nil {
				c.ui.Error(fmt.Sprintf("Failed to save asset configs: %v", err))
				errs = errors.Join(errs, err)
			}
		case gfsync.ConfigsPlatform:
			if c.state.Current == "" {
				log.Error("missing platform accounts without current platform", "values", m.Values)
				continue
			}
			handled = true
			platforms := c.state.Platforms.Clone()
			platforms.AddAccounts(c.state.Current, m.Values...)
			c.state.Platforms = platforms
			if err := gfsync.SavePlatformConfigs(ctx, c.store, platforms); err != nil {
				c.ui.Error(fmt.Sprintf("Failed to save platform configs: %v", err))
				errs = errors.Join(errs, err)
			}
		default:
			log.Error("unrecognized missing config", "name", m.Name, "values", m.Values)
		}
	}
	if handled {
		c.renderConfigs()
		c.ui.Error("Missing configs. Go to configs menu.")
	}
	return errs
}

// OpenPlatform makes name the current platform, resets the views and
// returns the page listing its transactions.
func (c *Controller) OpenPlatform(name string) (string, error) {
	p, ok := c.table.ByName(name)
	if !ok {
		return "", fmt.Errorf("unknown platform %q", name)
	}
	c.state.Current = p.Name
	c.state.LastTxn = nil
	c.state.Pending = nil
	c.ui.Render(TargetLastTxn, "")
	c.ui.Render(TargetNewTxns, "")
	c.renderPlatforms()
	return p.TxnPageURL, nil
}

// SelectPlatform makes name the current platform and restores its last
// transaction and pending reconciliation from the store.
func (c *Controller) SelectPlatform(ctx context.Context, name string) error {
	if _, err := c.OpenPlatform(name); err != nil {
		return err
	}
	last, err := c.tracker().Get(ctx)
	if err != nil {
		return err
	}
	pending, err := gfsync.LoadPending(ctx, c.store, c.state.Current)
	if err != nil {
		return err
	}
	c.state.LastTxn, c.state.Pending = last, pending
	c.renderLastTxn()
	if pending != nil {
		c.renderNewTxns(nil)
	}
	return nil
}

// ResetLastTxn forgets the last imported transaction of the current platform.
func (c *Controller) ResetLastTxn(ctx context.Context) error {
	if _, err := c.current(); err != nil {
		c.ui.Error("Open a platform first.")
		return err
	}
	if err := c.tracker().Reset(ctx); err != nil {
		c.ui.Error(fmt.Sprintf("Failed to reset the last transaction: %v", err))
		return err
	}
	c.state.LastTxn = nil
	c.renderLastTxn()
	c.ui.Success("Last Transaction has been reset")
	return nil
}

// persist runs save and notifies the user of the outcome.
func (c *Controller) persist(what string, save func() error) error {
	if err := save(); err != nil {
		c.ui.Error(fmt.Sprintf("Failed to save %s: %v", what, err))
		return fmt.Errorf("cannot save %s: %w", what, err)
	}
	c.ui.Success(fmt.Sprintf("Saved %s.", what))
	return nil
}

// SaveSettings updates and saves the settings.
func (c *Controller) SaveSettings(ctx context.Context, settings gfsync.Settings) error {
	c.state.Settings = settings
	defer c.renderSettings()
	return c.persist("settings", func() error { return gfsync.SaveSettings(ctx, c.store, settings) })
}

// SaveAssetConfigs updates and saves the asset configs.
func (c *Controller) SaveAssetConfigs(ctx context.Context, assets *gfsync.AssetConfigs) error {
	c.state.Assets = assets.Clone()
	defer c.renderConfigs()
	return c.persist("asset configs", func() error { return gfsync.SaveAssetConfigs(ctx, c.store, c.state.Assets) })
}

// SetSymbol sets the symbol of an asset and saves the asset configs.
func (c *Controller) SetSymbol(ctx context.Context, asset, symbol string) error {
	assets := c.state.Assets.Clone()
	assets.SetSymbol(asset, symbol)
	return c.SaveAssetConfigs(ctx, assets)
}

// SavePlatformConfigs updates and saves the platform configs. Custom
// platforms are reloaded.
func (c *Controller) SavePlatformConfigs(ctx context.Context, platforms *gfsync.PlatformConfigs) error {
	c.state.Platforms = platforms.Clone()
	c.table = platform.NewTable(c.state.Platforms)
	c.renderPlatforms()
	defer c.renderConfigs()
	return c.persist("platform configs", func() error { return gfsync.SavePlatformConfigs(ctx, c.store, c.state.Platforms) })
}

// SetAccount maps the account label of a platform to a Ghostfolio account
// and saves the platform configs.
func (c *Controller) SetAccount(ctx context.Context, platformName, label, accountID string) error {
	platforms := c.state.Platforms.Clone()
	p, ok := platforms.Get(platformName)
	if !ok {
		p = gfsync.PlatformConfig{Name: platformName, Accounts: make(map[string]string)}
	}
	if label == "" {
		label = gfsync.DefaultAccount
	}
	p.Accounts[label] = accountID
	platforms.Set(p)
	return c.SavePlatformConfigs(ctx, platforms)
}

// SaveGhostfolioConfig updates and saves the Ghostfolio connection.
func (c *Controller) SaveGhostfolioConfig(ctx context.Context, cfg gfsync.GhostfolioConfig) error {
	c.state.Ghostfolio = cfg
	c.refreshImporter()
	defer c.renderSettings()
	return c.persist("ghostfolio connection", func() error { return gfsync.SaveGhostfolioConfig(ctx, c.store, cfg) })
}

// pendingTxns returns the transactions waiting to be imported.
func (c *Controller) pendingTxns() ([]gfsync.Transaction, error) {
	if _, err := c.current(); err != nil {
		return nil, err
	}
	if c.state.Pending == nil || len(c.state.Pending.NewTxns) == 0 {
		return nil, fmt.Errorf("no new transaction on %s", c.state.Current)
	}
	return c.state.Pending.NewTxns, nil
}

// Export writes the pending new transactions as a Ghostfolio import file
// and returns its path.
func (c *Controller) Export(ctx context.Context) (string, error) {
	txns, err := c.pendingTxns()
	if err != nil {
		c.ui.Error(fmt.Sprintf("Nothing to export: %v", err))
		return "", err
	}
	imp := gfsync.CreateImport(txns, c.state.Settings, c.now())

	dir := c.state.Settings.ExportDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.ui.Error(fmt.Sprintf("Cannot create the export folder: %v", err))
		return "", err
	}
	name := filepath.Join(dir, gfsync.ExportFilename(c.state.Current)+".json")
	f, err := os.Create(name)
	if err != nil {
		c.ui.Error(fmt.Sprintf("Cannot export: %v", err))
		return "", err
	}
	defer f.Close()
	if err := gfsync.EncodeImport(f, imp); err != nil {
		c.ui.Error(fmt.Sprintf("Cannot export: %v", err))
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	c.ui.Success(fmt.Sprintf("Exported %d transactions to %s", len(txns), name))
	return name, nil
}

// Latest returns the newest transaction of the pending reconciliation, the
// one MarkImported expects.
func (c *Controller) Latest() (gfsync.Transaction, bool) {
	if c.state.Pending == nil {
		return gfsync.Transaction{}, false
	}
	return c.state.Pending.Latest()
}

// MarkImported records latest as the last imported transaction of the
// current platform. It is the only way the marker moves forward.
func (c *Controller) MarkImported(ctx context.Context, latest gfsync.Transaction) error {
	if _, err := c.current(); err != nil {
		c.ui.Error("Open a platform first.")
		return err
	}
	if err := c.tracker().Set(ctx, latest); err != nil {
		c.ui.Error(fmt.Sprintf("Failed to mark the import: %v", err))
		return err
	}
	c.state.LastTxn = &latest
	c.state.Pending = nil
	c.ui.Success("Import marked successful.")
	c.renderLastTxn()
	c.ui.Render(TargetNewTxns, "")
	if err := gfsync.ClearPending(ctx, c.store, c.state.Current); err != nil {
		log.Warn("cannot clear pending transactions", "platform", c.state.Current, "err", err)
	}
	return nil
}

// Sync pushes the pending new transactions to Ghostfolio. It does not mark
// them imported: the user confirms with MarkImported once checked.
func (c *Controller) Sync(ctx context.Context, dryRun bool) error {
	if c.importer == nil {
		c.ui.Error("Ghostfolio is not connected. Go to settings.")
		return errors.New("ghostfolio is not connected")
	}
	txns, err := c.pendingTxns()
	if err != nil {
		c.ui.Error(fmt.Sprintf("Nothing to sync: %v", err))
		return err
	}
	imp := gfsync.CreateImport(txns, c.state.Settings, c.now())
	if err := c.importer.Import(ctx, imp, dryRun); err != nil {
		c.ui.Error(fmt.Sprintf("Sync failed: %v", err))
		return err
	}
	if dryRun {
		c.ui.Success(fmt.Sprintf("Ghostfolio accepts the %d transactions.", len(txns)))
		return nil
	}
	c.ui.Success(fmt.Sprintf("Synced %d transactions. Mark the import successful once checked in Ghostfolio.", len(txns)))
	return nil
}
