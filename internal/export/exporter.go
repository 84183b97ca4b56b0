package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"podjoin/internal/episode"
	"podjoin/internal/ffmpeg"
	"podjoin/internal/fileutil"
	"podjoin/internal/logging"
	"podjoin/internal/normalize"
	"podjoin/internal/services"
)

// Exporter concatenates the normalized segments in the fixed sequence and
// encodes the result to MP3.
type Exporter struct {
	client     *ffmpeg.Client
	scratchDir string
	quality    int
	logger     *slog.Logger
}

// New constructs an Exporter. quality is the libmp3lame VBR setting
// (0 best .. 9 worst).
func New(client *ffmpeg.Client, scratchDir string, quality int, logger *slog.Logger) *Exporter {
	return &Exporter{
		client:     client,
		scratchDir: scratchDir,
		quality:    quality,
		logger:     logging.NewComponentLogger(logger, "exporter"),
	}
}

// Export encodes the sequence into destPath with a single engine call.
// Reused segments are referenced by path, never re-normalized. The engine
// writes into the scratch directory first; the file is published to
// destPath only after a clean exit, so a failed export never leaves a file
// claiming success at the destination.
func (e *Exporter) Export(ctx context.Context, segments map[episode.Role]normalize.Segment, sequence []episode.Role, destPath string) error {
	if len(sequence) == 0 {
		return services.Wrap(services.ErrExport, "exporting", "", "empty export sequence", nil)
	}

	inputs := make([]string, 0, len(sequence))
	for _, role := range sequence {
		segment, ok := segments[role]
		if !ok {
			return services.Wrap(services.ErrExport, "exporting", string(role),
				"no normalized segment for sequence entry", nil)
		}
		inputs = append(inputs, segment.Path)
	}

	staged := filepath.Join(e.scratchDir, filepath.Base(destPath))
	args := []string{"-hide_banner", "-nostdin", "-y"}
	for _, input := range inputs {
		args = append(args, "-i", input)
	}
	args = append(args,
		"-filter_complex", concatFilter(len(inputs)),
		"-map", "[out]",
		"-c:a", "libmp3lame",
		"-q:a", strconv.Itoa(e.quality),
		staged,
	)

	e.logger.Debug("concatenating segments",
		logging.Int("inputs", len(inputs)),
		logging.String("destination", destPath),
	)

	result, err := e.client.Run(ctx, args...)
	if err != nil {
		_ = os.Remove(staged)
		return services.Wrap(services.ErrExport, "exporting", "",
			ffmpeg.StderrExcerpt(result, 20), err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		_ = os.Remove(staged)
		return services.Wrap(services.ErrExport, "exporting", "",
			fmt.Sprintf("create output folder %q", filepath.Dir(destPath)), err)
	}
	if err := fileutil.Move(staged, destPath); err != nil {
		_ = os.Remove(staged)
		return services.Wrap(services.ErrExport, "exporting", "",
			fmt.Sprintf("publish %q", destPath), err)
	}
	return nil
}

func concatFilter(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%d:a]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[out]", n)
	return b.String()
}
