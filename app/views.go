package app

import (
	"github.com/etnz/gfsync"
	"github.com/etnz/gfsync/renderer"
)

// RenderAll renders every target.
func (c *Controller) RenderAll() {
	c.renderPlatforms()
	c.renderLastTxn()
	c.renderNewTxns(nil)
	c.renderConfigs()
	c.renderSettings()
}

func (c *Controller) renderPlatforms() {
	v := renderer.Platforms{}
	for _, p := range c.table {
		v.Platforms = append(v.Platforms, renderer.Platform{Name: p.Name, TxnPageURL: p.TxnPageURL, Current: p.Name == c.state.Current})
	}
	c.ui.Render(TargetPlatforms, renderer.RenderPlatforms(v))
}

func (c *Controller) renderLastTxn() {
	if c.state.Current == "" {
		c.ui.Render(TargetLastTxn, "")
		return
	}
	c.ui.Render(TargetLastTxn, renderer.RenderLastTxn(renderer.LastTxn{Platform: c.state.Current, Txn: c.state.LastTxn}))
}

func (c *Controller) renderNewTxns(missing gfsync.MissingReport) {
	if c.state.Current == "" {
		c.ui.Render(TargetNewTxns, "")
		return
	}
	v := renderer.NewTxns{Platform: c.state.Current, Missing: missing}
	if c.state.Pending != nil {
		v.NewTxns = c.state.Pending.NewTxns
		if latest, ok := c.state.Pending.Latest(); ok && len(v.NewTxns) > 0 {
			v.Latest = &latest
		}
	}
	c.ui.Render(TargetNewTxns, renderer.RenderNewTxns(v))
}

func (c *Controller) renderConfigs() {
	c.ui.Render(TargetConfigs, renderer.RenderConfigs(renderer.Configs{
		Assets:    c.state.Assets.All(),
		Platforms: c.state.Platforms.All(),
	}))
}

func (c *Controller) renderSettings() {
	c.ui.Render(TargetSettings, renderer.RenderSettings(renderer.Settings{
		Settings:   c.state.Settings,
		Ghostfolio: c.state.Ghostfolio,
	}))
}
