// Package services provides the shared error taxonomy and context carriers
// used across the pipeline. Errors are tagged with sentinel markers so the
// orchestrator and front end can distinguish missing files from a missing
// engine from processing failures without parsing message text.
package services
