// Package loudness measures the integrated loudness of the reference clip
// by running the engine's loudnorm filter in analysis mode and decoding the
// JSON report it prints to the diagnostic stream.
package loudness
