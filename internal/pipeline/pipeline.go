package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"podjoin/internal/config"
	"podjoin/internal/deps"
	"podjoin/internal/episode"
	"podjoin/internal/export"
	"podjoin/internal/ffmpeg"
	"podjoin/internal/history"
	"podjoin/internal/logging"
	"podjoin/internal/loudness"
	"podjoin/internal/normalize"
	"podjoin/internal/notifications"
	"podjoin/internal/services"
)

// Job describes one requested export.
type Job struct {
	// EpisodeDir is the folder holding the six segment files.
	EpisodeDir string
	// OutputDir overrides the export destination. When empty the configured
	// output directory is used, and when that is also empty the episode
	// folder itself.
	OutputDir string
	// Chapter is the episode number used for the output file name.
	Chapter int
}

// Result describes the outcome of a finished job.
type Result struct {
	JobID        string
	State        State
	OutputPath   string
	BaselineLUFS float64
	Err          error
}

// ProgressFunc receives state transitions as the job advances. During
// normalization role carries the segment being processed; otherwise it is
// empty.
type ProgressFunc func(state State, role episode.Role)

// Option configures optional Pipeline behavior.
type Option func(*Pipeline)

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) Option {
	return func(p *Pipeline) {
		p.notifier = notifier
	}
}

// WithStore attaches a history store recording each run.
func WithStore(store *history.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithExecutor overrides the engine process executor (used in tests).
func WithExecutor(exec ffmpeg.Executor) Option {
	return func(p *Pipeline) {
		p.executor = exec
	}
}

// WithProgress registers a progress callback.
func WithProgress(progress ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = progress
	}
}

// Pipeline runs the full assembly workflow for one episode folder: validate,
// measure the baseline, normalize the six segments, and export the chapter
// MP3. One job runs at a time; a file lock under the scratch root rejects
// concurrent invocations.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	store    *history.Store
	executor ffmpeg.Executor
	progress ProgressFunc
}

// New constructs a Pipeline for the given config.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		notifier: notifications.NewService(cfg),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the job and blocks until it finishes. The returned Result
// carries the terminal state; Err is set when State is StateFailed.
func (p *Pipeline) Run(ctx context.Context, job Job) Result {
	result := Result{JobID: uuid.NewString(), State: StateIdle}

	ctx = services.WithJobID(ctx, result.JobID)
	logger := logging.WithContext(ctx, p.logger)

	if err := validateJob(job); err != nil {
		return p.fail(ctx, logger, nil, job, result, err)
	}

	// Engine lookup happens before any processing so a missing binary is
	// reported without touching the episode folder.
	enginePath, err := deps.LocateEngine(p.cfg.Engine.Binary, p.cfg.Engine.Path)
	if err != nil {
		return p.fail(ctx, logger, nil, job, result, err)
	}

	p.report(StateValidating, "")
	result.State = StateValidating
	missing, err := episode.Validate(job.EpisodeDir)
	if err != nil {
		return p.fail(ctx, logger, nil, job, result,
			services.Wrap(services.ErrFilesystem, "validating", "", "read episode folder", err))
	}
	if len(missing) > 0 {
		return p.fail(ctx, logger, nil, job, result,
			services.Wrap(services.ErrValidation, "validating", "",
				"missing "+strings.Join(missing, ", "), nil))
	}

	if err := p.cfg.EnsureDirectories(); err != nil {
		return p.fail(ctx, logger, nil, job, result,
			services.Wrap(services.ErrFilesystem, "validating", "", "ensure directories", err))
	}

	lock := flock.New(filepath.Join(p.cfg.Paths.ScratchDir, "podjoin.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return p.fail(ctx, logger, nil, job, result,
			services.Wrap(services.ErrFilesystem, "validating", "", "acquire job lock", err))
	}
	if !locked {
		return p.fail(ctx, logger, nil, job, result, errors.New("another export is already running"))
	}
	defer func() { _ = lock.Unlock() }()

	scratch := filepath.Join(p.cfg.Paths.ScratchDir, result.JobID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return p.fail(ctx, logger, nil, job, result,
			services.Wrap(services.ErrFilesystem, "validating", "", "create scratch directory", err))
	}
	defer p.cleanupScratch(logger, scratch)

	var run *history.Run
	if p.store != nil {
		run = &history.Run{JobID: result.JobID, EpisodeDir: job.EpisodeDir, Chapter: job.Chapter}
		if err := p.store.RecordStart(ctx, run); err != nil {
			logger.Warn("record run start failed", logging.Error(err))
			run = nil
		}
	}

	if err := p.notifier.NotifyExportStarted(ctx, job.EpisodeDir, job.Chapter); err != nil {
		logger.Warn("start notification failed", logging.Error(err))
	}

	started := time.Now()
	client, err := p.newClient(enginePath)
	if err != nil {
		return p.fail(ctx, logger, run, job, result, err)
	}

	p.report(StateMeasuringBaseline, "")
	result.State = StateMeasuringBaseline
	logger.Info("measuring baseline loudness",
		logging.String(logging.FieldRole, string(episode.ReferenceRole)))
	baseline, err := loudness.Measure(ctx, client,
		episode.SourcePath(job.EpisodeDir, episode.ReferenceRole), loudness.Params{
			TargetI:       p.cfg.Loudness.AnalysisTargetI,
			TruePeak:      p.cfg.Loudness.TruePeak,
			LoudnessRange: p.cfg.Loudness.LoudnessRange,
		})
	if err != nil {
		return p.fail(ctx, logger, run, job, result, err)
	}
	result.BaselineLUFS = baseline.InputI
	logger.Info("baseline measured", logging.Float64("input_i", baseline.InputI))
	if p.store != nil && run != nil {
		if err := p.store.SetBaseline(ctx, run.ID, baseline.InputI); err != nil {
			logger.Warn("record baseline failed", logging.Error(err))
		}
	}

	p.report(StateNormalizing, "")
	result.State = StateNormalizing
	sources := make(map[episode.Role]string, len(episode.Roles()))
	for _, role := range episode.Roles() {
		sources[role] = episode.SourcePath(job.EpisodeDir, role)
	}
	normalizer := normalize.New(client, scratch, normalize.Options{
		TargetI:       baseline.InputI,
		TruePeak:      p.cfg.Loudness.TruePeak,
		LoudnessRange: p.cfg.Loudness.LoudnessRange,
		SampleRate:    p.cfg.Loudness.SampleRate,
		Channels:      p.cfg.Loudness.Channels,
	}, logger)
	segments, err := normalizer.NormalizeAll(ctx, sources, p.cfg.Workflow.NormalizeJobs,
		func(role episode.Role) {
			p.report(StateNormalizing, role)
		})
	if err != nil {
		return p.fail(ctx, logger, run, job, result, err)
	}

	p.report(StateExporting, "")
	result.State = StateExporting
	destPath := filepath.Join(p.destinationDir(job), episode.OutputFileName(job.Chapter))
	exporter := export.New(client, scratch, p.cfg.Export.MP3Quality, logger)
	if err := exporter.Export(ctx, segments, episode.ExportOrder(), destPath); err != nil {
		return p.fail(ctx, logger, run, job, result, err)
	}

	result.State = StateDone
	result.OutputPath = destPath
	p.report(StateDone, "")
	logger.Info("export complete",
		logging.String("output", destPath),
		logging.Duration("elapsed", time.Since(started)),
	)
	if p.store != nil && run != nil {
		if err := p.store.MarkCompleted(ctx, run.ID, destPath); err != nil {
			logger.Warn("record run completion failed", logging.Error(err))
		}
	}
	if err := p.notifier.NotifyExportCompleted(ctx, destPath, time.Since(started)); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
	return result
}

// RunAsync starts the job in a goroutine and delivers the single Result on
// the returned channel.
func (p *Pipeline) RunAsync(ctx context.Context, job Job) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		results <- p.Run(ctx, job)
	}()
	return results
}

func (p *Pipeline) newClient(enginePath string) (*ffmpeg.Client, error) {
	opts := []ffmpeg.Option{}
	if p.executor != nil {
		opts = append(opts, ffmpeg.WithExecutor(p.executor))
	}
	return ffmpeg.New(enginePath, opts...)
}

func (p *Pipeline) destinationDir(job Job) string {
	if job.OutputDir != "" {
		return job.OutputDir
	}
	if p.cfg.Paths.OutputDir != "" {
		return p.cfg.Paths.OutputDir
	}
	return job.EpisodeDir
}

func (p *Pipeline) report(state State, role episode.Role) {
	if p.progress != nil {
		p.progress(state, role)
	}
}

func (p *Pipeline) fail(ctx context.Context, logger *slog.Logger, run *history.Run, job Job, result Result, err error) Result {
	result.State = StateFailed
	result.Err = err
	kind := services.Classify(err)
	logger.Error("export failed",
		logging.String("kind", string(kind)),
		logging.Error(err),
	)
	p.report(StateFailed, "")
	if p.store != nil && run != nil {
		if markErr := p.store.MarkFailed(ctx, run.ID, string(kind), err.Error()); markErr != nil {
			logger.Warn("record run failure failed", logging.Error(markErr))
		}
	}
	if p.notifier != nil {
		if notifyErr := p.notifier.NotifyExportFailed(ctx, err, job.EpisodeDir); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
	}
	return result
}

func (p *Pipeline) cleanupScratch(logger *slog.Logger, scratch string) {
	if err := os.RemoveAll(scratch); err != nil {
		logger.Warn("scratch cleanup failed",
			logging.String("path", scratch),
			logging.Error(err),
		)
	}
}

func validateJob(job Job) error {
	if strings.TrimSpace(job.EpisodeDir) == "" {
		return services.Wrap(services.ErrValidation, "validating", "", "episode folder not set", nil)
	}
	if job.Chapter < 1 {
		return services.Wrap(services.ErrValidation, "validating", "",
			fmt.Sprintf("chapter must be positive, got %d", job.Chapter), nil)
	}
	return nil
}
