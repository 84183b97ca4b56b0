package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"

	"podjoin/internal/episode"
	"podjoin/internal/ffmpeg"
	"podjoin/internal/logging"
	"podjoin/internal/services"
)

// Segment is a normalized intermediate artifact produced from exactly one
// distinct source role. It lives in the job's scratch directory and is
// referenced by path, possibly more than once, in the export sequence.
type Segment struct {
	Role episode.Role
	Path string
}

// Options configure the re-encode applied to every source file.
type Options struct {
	// TargetI is the integrated loudness target in LUFS, taken from the
	// baseline measurement of the reference clip.
	TargetI       float64
	TruePeak      float64
	LoudnessRange float64
	SampleRate    int
	Channels      int
}

// Normalizer drives the engine's two-pass loudness correction for the six
// distinct roles of a job.
type Normalizer struct {
	client     *ffmpeg.Client
	scratchDir string
	opts       Options
	logger     *slog.Logger
}

// New constructs a Normalizer writing into the given scratch directory.
func New(client *ffmpeg.Client, scratchDir string, opts Options, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		client:     client,
		scratchDir: scratchDir,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "normalizer"),
	}
}

// Normalize re-encodes one source file to the target loudness at the fixed
// sample rate and channel layout, writing exactly one scratch file.
func (n *Normalizer) Normalize(ctx context.Context, role episode.Role, source string) (Segment, error) {
	out := filepath.Join(n.scratchDir, string(role)+"_norm.wav")
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", source,
		"-vn",
		"-af", correctionFilter(n.opts),
		"-ar", strconv.Itoa(n.opts.SampleRate),
		"-ac", strconv.Itoa(n.opts.Channels),
		out,
	}

	n.logger.Debug("normalizing source",
		logging.String(logging.FieldRole, string(role)),
		logging.String("source", source),
		logging.Float64("target_i", n.opts.TargetI),
	)

	result, err := n.client.Run(ctx, args...)
	if err != nil {
		return Segment{}, services.Wrap(services.ErrNormalization, "normalizing", string(role),
			ffmpeg.StderrExcerpt(result, 20), err)
	}
	return Segment{Role: role, Path: out}, nil
}

// NormalizeAll normalizes every distinct role exactly once. With jobs > 1
// the calls run concurrently up to that bound; either way all six complete
// (or the run has failed) before the caller may proceed to export. The
// progress callback fires as each role starts.
func (n *Normalizer) NormalizeAll(ctx context.Context, sources map[episode.Role]string, jobs int, progress func(episode.Role)) (map[episode.Role]Segment, error) {
	order := episode.Roles()
	for _, role := range order {
		if _, ok := sources[role]; !ok {
			return nil, services.Wrap(services.ErrNormalization, "normalizing", string(role),
				"no source file supplied", nil)
		}
	}

	if jobs <= 1 {
		segments := make(map[episode.Role]Segment, len(order))
		for _, role := range order {
			if progress != nil {
				progress(role)
			}
			segment, err := n.Normalize(ctx, role, sources[role])
			if err != nil {
				return nil, err
			}
			segments[role] = segment
		}
		return segments, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, jobs)
	segments := make(map[episode.Role]Segment, len(order))

	for _, role := range order {
		wg.Add(1)
		go func(role episode.Role) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				return
			}
			if runCtx.Err() != nil {
				return
			}
			if progress != nil {
				progress(role)
			}
			segment, err := n.Normalize(runCtx, role, sources[role])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			segments[role] = segment
		}(role)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return segments, nil
}

func correctionFilter(opts Options) string {
	return fmt.Sprintf("loudnorm=I=%.2f:TP=%.1f:LRA=%.0f",
		opts.TargetI, opts.TruePeak, opts.LoudnessRange)
}
