// Package backup exports the complete event log of any engine as JSON lines into a
// Target and restores such an export into an empty store.
//
// Object keys are <prefix>/events-<UTC timestamp>.jsonl, so the lexically last key is
// the newest export. Targets are a local directory (FSTarget) and an S3 bucket (S3Target).
//
// Snapshots are not exported, they are rebuilt from the events on demand.
package backup
