// Package store persists normalized events keyed by (title, date_time, location).
//
// Every backend implements Store with upsert semantics: writing a row whose
// identity triple already exists replaces its url, image_url and perks columns
// and never adds a second row. Reads return events in a half-open UTC window
// ordered by start time.
//
// Backends:
//   - supabase: PostgREST upsert on the events table (default)
//   - postgres: gorm with ON CONFLICT DO UPDATE
//   - mongo: unordered bulk ReplaceOne upserts over a unique compound index
//   - memory: in-process map for tests and dry runs
//
// The supabase and postgres backends send each batch as one statement, so a
// batch lands atomically. The mongo backend may apply part of a batch before
// reporting an error.
package store
