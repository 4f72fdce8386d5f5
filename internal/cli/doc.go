// Package cli implements the command-line interface for perk-events.
//
// The cli package provides the Cobra-based commands that drive the pipeline:
// scrape (browser extraction, normalization, snapshot export and store
// upsert), digest (tomorrow's events rendered and mailed), upsert (replay a
// snapshot into the store) and serve (the HTTP API). It builds the store,
// mailer and browser clients once per process and passes them into the
// stages explicitly.
package cli
