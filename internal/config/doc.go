// Package config loads perk-events settings.
//
// Values are layered: built-in defaults, then an optional YAML settings
// file, then environment variables (optionally pre-loaded from a .env file),
// then command flags applied by the cli package. Each command validates
// only what it needs so a scrape never fails on missing mail settings.
package config
