// Package gfsync reconciles transactions scraped from trading platforms with
// the transactions already imported into Ghostfolio.
//
// The core functionalities are:
//   - Configuration: asset names are mapped to external symbols
//     ([AssetConfigs]) and platform accounts to Ghostfolio accounts
//     ([PlatformConfigs]).
//   - Reconciliation: [Reconcile] selects, among an ordered list of scraped
//     transactions, the ones newer than the last imported one. It fails
//     closed: any unresolved asset or account produces a [MissingReport]
//     instead of transactions.
//   - Tracking: a [Tracker] persists, per platform, the last transaction the
//     user confirmed as imported.
//   - Export: [CreateImport] turns transactions into a Ghostfolio import
//     document.
//
// Persistence goes through a [Store]; the store package provides folder and
// SQLite backends. Platform specific parsing lives in the platform package.
package gfsync
