// Package report provides report generation and result persistence.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for documentation and sharing
//
// It also owns the on-disk result artifacts: the sorted plain-text
// results file and the JSON stream documents (active streams, stream
// history) updated via read-modify-write upserts.
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
package report
