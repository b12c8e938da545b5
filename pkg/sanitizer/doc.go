// Package sanitizer normalizes free-text request fields before they are
// validated and stored.
//
// Every function is idempotent and never fails: input that cannot be
// normalized comes back empty, or unchanged where dropping it would lose
// data.
//
// Normalization includes:
//   - Text (names, make, model, locations): collapse whitespace and trim
//   - Comments: trim and cap consecutive blank lines
//   - Image references: trim, lowercase the host, drop tracking parameters
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
