// Package export builds the final chapter MP3 from normalized segments
// with a single engine invocation.
package export
