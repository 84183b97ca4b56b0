package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEngineNotFound indicates the audio engine binary could not be located.
	ErrEngineNotFound = errors.New("engine not found")
	// ErrValidation indicates the episode folder failed its precondition checks.
	ErrValidation = errors.New("validation error")
	// ErrAnalysis indicates the baseline loudness measurement failed.
	ErrAnalysis = errors.New("analysis failed")
	// ErrNormalization indicates a per-role normalization run failed.
	ErrNormalization = errors.New("normalization failed")
	// ErrExport indicates concatenation or MP3 encoding failed.
	ErrExport = errors.New("export failed")
	// ErrFilesystem indicates a scratch or destination write problem.
	ErrFilesystem = errors.New("filesystem error")
)

// Kind is the stable classification string surfaced to the front end and
// persisted with failed runs. Each kind implies a different user action:
// add the missing files, install or bundle the engine, or inspect the
// audio files themselves.
type Kind string

const (
	KindEngineNotFound Kind = "engine_not_found"
	KindMissingFiles   Kind = "missing_files"
	KindAnalysis       Kind = "analysis_failed"
	KindNormalization  Kind = "normalization_failed"
	KindExport         Kind = "export_failed"
	KindFilesystem     Kind = "filesystem_error"
	KindCancelled      Kind = "cancelled"
	KindUnknown        Kind = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a pipeline error to its user-facing kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrEngineNotFound):
		return KindEngineNotFound
	case errors.Is(err, ErrValidation):
		return KindMissingFiles
	case errors.Is(err, ErrAnalysis):
		return KindAnalysis
	case errors.Is(err, ErrNormalization):
		return KindNormalization
	case errors.Is(err, ErrExport):
		return KindExport
	case errors.Is(err, ErrFilesystem):
		return KindFilesystem
	default:
		return KindUnknown
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
