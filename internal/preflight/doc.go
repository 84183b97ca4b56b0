// Package preflight runs environment checks before an export starts: engine
// availability, directory access, and free disk space.
package preflight
