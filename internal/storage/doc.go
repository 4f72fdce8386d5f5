// Package storage provides JSON-based persistence for event snapshots.
//
// Before each upsert the scrape run writes the normalized rows to
// events_export.json in the snapshot directory. The file is an indented JSON
// array in the same shape the store receives, so it doubles as an audit trail
// and as input for replaying a batch with the upsert command.
// The default location is ~/.local/share/perk-events/.
package storage
