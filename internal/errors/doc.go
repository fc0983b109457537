// Package errors provides coded, structured errors for the rover runtime.
//
// Every failure the reactive core and node registry can report has a code
// (e.g. "R001") registered with a category, a one-line message and a
// longer explanation. Errors compare equal under errors.Is when their codes
// match, so packages can export a sentinel built with New and return
// enriched copies of it:
//
//	var ErrStaleHandle = errors.New("R001")
//
//	return errors.New("R001").WithDetail("value 3.2 was disposed")
//
// # Categories
//
//   - reactive: store, graph, derived and effect failures
//   - ui: node registry and render pass failures
//   - persist: snapshot storage failures
//   - config: configuration file failures
//   - cli: command line failures
//
// Format renders an error for a terminal; FormatCompact and FormatJSON give
// single-line forms for logs.
package errors
