// Package normalize re-encodes each distinct source file to the measured
// target loudness at a fixed sample rate and channel layout, producing the
// intermediate segments the exporter concatenates.
package normalize
