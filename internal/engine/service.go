package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"reelcraft/internal/cache"
	"reelcraft/internal/config"
	"reelcraft/internal/effects"
	"reelcraft/internal/paths"
	"reelcraft/pkg/timeline"
)

// Service coordinates ffmpeg renders for compiled timelines.
type Service struct {
	Paths    paths.WorkspacePaths
	Config   config.Config
	Runner   Runner
	Logger   zerolog.Logger
	Registry *effects.Registry
}

// Job is one timeline to render.
type Job struct {
	Name     string
	Source   string // document the timeline was loaded from, if any
	Timeline *timeline.Timeline
	Output   string
}

// Options controls render execution behaviour.
type Options struct {
	Concurrency int
	Force       bool
	DryRun      bool
	// CheckSources probes inputs before running ffmpeg.
	CheckSources bool
	Reporter     ProgressReporter
}

// Result captures the outcome of a render attempt.
type Result struct {
	Name       string
	OutputPath string
	LogPath    string
	Command    string
	Duration   float64
	Skipped    bool
	Reason     string
	Elapsed    time.Duration
	Size       int64
	Err        error
}

// ProgressReporter receives notifications as jobs move through the render
// pipeline. Methods are called from worker goroutines.
type ProgressReporter interface {
	Start(job Job)
	Progress(job Job, done, total float64)
	Complete(result Result)
}

// NewService prepares a renderer bound to a workspace.
func NewService(wp paths.WorkspacePaths, cfg config.Config, runner Runner, logger zerolog.Logger) (*Service, error) {
	if runner == nil {
		runner = CmdRunner{}
	}
	if err := wp.EnsureMetaDirs(); err != nil {
		return nil, err
	}
	return &Service{
		Paths:  wp,
		Config: cfg,
		Runner: runner,
		Logger: logger,
	}, nil
}

type plannedJob struct {
	job     Job
	cmd     timeline.Command
	sources []string
	err     error
}

// Render compiles every job, skips outputs whose inputs have not changed
// since the last successful render, and runs ffmpeg for the rest. Per-job
// failures are reported in the results; the error covers workspace-level
// problems such as a held lock.
func (s *Service) Render(ctx context.Context, jobs []Job, opts Options) ([]Result, error) {
	if s == nil {
		return nil, errors.New("render service is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.NewString()
	logger := s.Logger.With().Str("run", runID).Logger()

	var lock *cache.Lock
	if !opts.DryRun {
		var err error
		if lock, err = cache.AcquireLock(s.Paths.LockFile); err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn().Err(err).Msg("release workspace lock")
			}
		}()
	}

	state, err := cache.Load(s.Paths.StateFile)
	if err != nil {
		return nil, fmt.Errorf("load render state: %w", err)
	}
	globalHash := cache.GlobalConfigHash(s.Config)

	planned := s.plan(jobs)
	targets := make([]cache.Target, len(planned))
	for i, p := range planned {
		targets[i] = cache.Target{Output: p.job.Output}
		if p.err == nil {
			targets[i].InputHash = cache.JobHash(p.cmd, cache.StampSources(p.sources))
		}
	}
	actions := cache.DetectChanges(state, targets, globalHash, opts.Force)
	if globalHash != state.GlobalConfigHash {
		state.Jobs = map[string]cache.JobState{}
		state.GlobalConfigHash = globalHash
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger.Info().Int("jobs", len(jobs)).Int("concurrency", concurrency).Bool("dry_run", opts.DryRun).Msg("render started")

	results := make([]Result, len(planned))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, p := range planned {
		base := Result{
			Name:       p.job.Name,
			OutputPath: p.job.Output,
			Reason:     actions[i].Reason,
		}
		if p.err == nil {
			base.Command = p.cmd.String()
			base.Duration = p.job.Timeline.Duration()
		}

		switch {
		case p.err != nil:
			base.Err = p.err
			base.Reason = ""
			s.finish(opts.Reporter, &results[i], base, logger)
			continue
		case actions[i].Action == cache.ActionSkip:
			base.Skipped = true
			s.finish(opts.Reporter, &results[i], base, logger)
			continue
		case opts.DryRun:
			base.Skipped = true
			base.Reason = "dry run: " + base.Reason
			s.finish(opts.Reporter, &results[i], base, logger)
			continue
		}

		g.Go(func() error {
			if opts.Reporter != nil {
				opts.Reporter.Start(p.job)
			}
			res := s.renderOne(ctx, p, base, opts, logger)
			if res.Err == nil {
				docHash, _ := cache.DocumentHash(p.job.Timeline)
				mu.Lock()
				state.Record(p.job.Output, cache.JobState{
					InputHash:  targets[i].InputHash,
					Document:   docHash,
					RenderedAt: time.Now().UTC(),
					RunID:      runID,
					Timeline:   p.job.Source,
					DurationS:  res.Duration,
				})
				mu.Unlock()
			}
			s.finish(opts.Reporter, &results[i], res, logger)
			return nil
		})
	}
	_ = g.Wait()

	if !opts.DryRun {
		cache.Prune(state, existingOutputs(state))
		if err := state.Save(s.Paths.StateFile); err != nil {
			return results, fmt.Errorf("save render state: %w", err)
		}
	}
	return results, nil
}

func (s *Service) finish(reporter ProgressReporter, slot *Result, res Result, logger zerolog.Logger) {
	*slot = res
	event := logger.Info()
	if res.Err != nil {
		event = logger.Error().Err(res.Err)
	}
	event.Str("job", res.Name).
		Str("output", res.OutputPath).
		Bool("skipped", res.Skipped).
		Str("reason", res.Reason).
		Dur("elapsed", res.Elapsed).
		Msg("render finished")
	if reporter != nil {
		reporter.Complete(res)
	}
}

// plan compiles each job and rejects duplicate outputs.
func (s *Service) plan(jobs []Job) []plannedJob {
	planned := make([]plannedJob, len(jobs))
	seen := make(map[string]string, len(jobs))
	for i, job := range jobs {
		p := plannedJob{job: job}
		switch {
		case job.Timeline == nil:
			p.err = fmt.Errorf("job %q has no timeline", job.Name)
		case strings.TrimSpace(job.Output) == "":
			p.err = fmt.Errorf("job %q has no output path", job.Name)
		}
		if p.err == nil {
			p.job.Output = s.Paths.Resolve(job.Output)
			if prior, dup := seen[p.job.Output]; dup {
				p.err = fmt.Errorf("job %q writes %s, already written by %q", job.Name, p.job.Output, prior)
			} else {
				seen[p.job.Output] = job.Name
			}
		}
		if p.err == nil {
			p.cmd, p.err = s.compile(job.Timeline, p.job.Output)
			for _, src := range job.Timeline.Sources() {
				p.sources = append(p.sources, s.Paths.Resolve(src))
			}
		}
		planned[i] = p
	}
	return planned
}

func (s *Service) compile(tl *timeline.Timeline, output string) (timeline.Command, error) {
	if s.Registry != nil {
		return tl.CommandWith(output, s.Registry)
	}
	return tl.Command(output)
}

func (s *Service) renderOne(ctx context.Context, p plannedJob, res Result, opts Options, logger zerolog.Logger) Result {
	started := time.Now()

	if opts.CheckSources {
		prober := Prober{Runner: s.Runner, FFprobe: s.Config.Engine.FFprobe}
		for _, issue := range prober.Check(ctx, p.job.Timeline) {
			if issue.Level == "error" {
				res.Err = issue
				return finishResult(res, started)
			}
			logger.Warn().Str("job", p.job.Name).Str("path", issue.Path).Msg(issue.Message)
		}
	}

	if err := os.MkdirAll(filepath.Dir(p.job.Output), 0o755); err != nil {
		res.Err = fmt.Errorf("ensure output directory: %w", err)
		return finishResult(res, started)
	}

	res.LogPath = filepath.Join(s.Paths.LogsDir, logName(p.job)+".log")
	logFile, err := os.Create(res.LogPath)
	if err != nil {
		res.Err = fmt.Errorf("open log file: %w", err)
		return finishResult(res, started)
	}
	defer logFile.Close()
	fmt.Fprintf(logFile, "# %s\n", res.Command)

	total := res.Duration
	progress := newProgressWriter(
		func(done float64) {
			if opts.Reporter != nil {
				opts.Reporter.Progress(p.job, done, total)
			}
		},
		func() {
			if opts.Reporter != nil {
				opts.Reporter.Progress(p.job, total, total)
			}
		},
	)

	args := append(append([]string{}, progressArgs...), p.cmd.Args...)
	logger.Debug().Str("job", p.job.Name).Strs("args", args).Msg("running ffmpeg")
	run, err := s.Runner.Run(ctx, p.cmd.Executable, args, RunOptions{
		Dir:    s.Paths.Root,
		Stdout: progress,
		Stderr: logFile,
	})
	if err != nil {
		_ = os.Remove(p.job.Output)
		if run.ExitCode != 0 {
			res.Err = fmt.Errorf("ffmpeg exited with code %d: %w (see %s)", run.ExitCode, err, res.LogPath)
		} else {
			res.Err = fmt.Errorf("ffmpeg failed: %w (see %s)", err, res.LogPath)
		}
		return finishResult(res, started)
	}

	if info, err := os.Stat(p.job.Output); err == nil {
		res.Size = info.Size()
	}
	return finishResult(res, started)
}

// existingOutputs lists recorded outputs still present on disk.
func existingOutputs(state *cache.RenderState) map[string]bool {
	keep := make(map[string]bool, len(state.Jobs))
	for out := range state.Jobs {
		if _, err := os.Stat(out); err == nil {
			keep[out] = true
		}
	}
	return keep
}

func finishResult(res Result, started time.Time) Result {
	res.Elapsed = time.Since(started)
	return res
}

func logName(job Job) string {
	name := strings.TrimSpace(job.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(job.Output), filepath.Ext(job.Output))
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}
