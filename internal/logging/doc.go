// Package logging wires log/slog with a human-readable console handler and a
// JSON handler, plus context-derived fields for job and stage attribution.
package logging
