// Package transfer moves habit collections in and out of HabitPulse.
//
// Import accepts:
//   - CUE files, validated against an embedded schema (schema.cue)
//   - JSON, either a bare array as written by the browser version or a
//     Document as written by Export
//   - YAML and TOML Documents
//
// Every format is normalized to the persisted JSON form and run through
// habit.Decode, so imported records get the same backfilling and repair as
// stored ones.
//
// Export writes a Document as JSON, YAML or TOML.
package transfer
