// Package ffmpeg wraps subprocess invocations of the external audio engine.
// The Executor seam lets tests stub the engine and assert on the exact
// argument lists the pipeline builds.
package ffmpeg
