// Package pipeline orchestrates the episode assembly workflow from
// validation through baseline measurement, normalization, and export.
package pipeline
