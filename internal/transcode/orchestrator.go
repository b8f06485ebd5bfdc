// SPDX-License-Identifier: MIT

package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	vblog "github.com/vidbridge/vidbridge/internal/log"
	"github.com/vidbridge/vidbridge/internal/metrics"
	"github.com/vidbridge/vidbridge/internal/playlist"
	"github.com/vidbridge/vidbridge/internal/probe"
	"github.com/vidbridge/vidbridge/internal/procgroup"
)

// TrackProber enumerates the tracks of a media source.
type TrackProber interface {
	Probe(ctx context.Context, url string) ([]probe.Track, error)
}

// Executor runs one rendition process to completion. Cancelling ctx must
// terminate the underlying process. The default executor spawns ffmpeg;
// tests substitute their own.
type Executor interface {
	Run(ctx context.Context, r Rendition) error
}

// DefaultExecutor executes renditions with a real ffmpeg binary. The command
// is started in its own process group so a client disconnect never aborts it
// and a crash never takes the service down; cancellation kills the whole
// group so no orphaned encoder keeps writing into the job directory.
type DefaultExecutor struct {
	Bin string
}

// Run executes the rendition and returns an error carrying the exit code and
// a bounded stderr tail on non-zero exit.
func (e *DefaultExecutor) Run(ctx context.Context, r Rendition) error {
	cmd := exec.Command(e.Bin, r.Args...) // #nosec G204 -- arguments are built internally
	procgroup.Set(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s for %s: %w", e.Bin, r.Name, err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		if err := procgroup.Kill(cmd, syscall.SIGKILL); err != nil {
			return fmt.Errorf("kill %s rendition %s: %w", e.Bin, r.Name, err)
		}
		<-waitCh
		return fmt.Errorf("%s rendition %s aborted: %w", e.Bin, r.Name, ctx.Err())
	case err := <-waitCh:
		if err != nil {
			code := -1
			if cmd.ProcessState != nil {
				code = cmd.ProcessState.ExitCode()
			}
			return fmt.Errorf("%s rendition %s exited with code %d: %s",
				e.Bin, r.Name, code, stderrTail(&stderr))
		}
		return nil
	}
}

// Options configures an Orchestrator.
type Options struct {
	FFmpegBin      string
	SegmentSeconds int
	CacheTTL       time.Duration
	// StartTimeout bounds how long the pipeline waits for all sub-playlists
	// to appear before declaring the job failed.
	StartTimeout time.Duration
}

// Orchestrator launches and supervises the per-rendition transcoding
// processes of a job. Processes are detached: their lifetime is independent
// of the HTTP request that triggered them, and a crash of one never crashes
// the service.
type Orchestrator struct {
	registry *Registry
	prober   TrackProber
	exec     Executor
	opts     Options
	log      zerolog.Logger
}

// NewOrchestrator creates an orchestrator operating on reg. A nil exec
// selects the ffmpeg DefaultExecutor.
func NewOrchestrator(reg *Registry, prober TrackProber, exec Executor, opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.FFmpegBin == "" {
		opts.FFmpegBin = "ffmpeg"
	}
	if opts.SegmentSeconds <= 0 {
		opts.SegmentSeconds = 6
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = 2 * time.Minute
	}
	if exec == nil {
		exec = &DefaultExecutor{Bin: opts.FFmpegBin}
	}
	return &Orchestrator{
		registry: reg,
		prober:   prober,
		exec:     exec,
		opts:     opts,
		log:      logger,
	}
}

// Submit returns the job for key, starting a new pipeline when this is the
// first submission. The pipeline runs in the background; callers observe
// progress through the job handle and the readiness poller.
func (o *Orchestrator) Submit(key, url string) (*Job, bool) {
	job, created := o.registry.GetOrCreate(key)
	if created {
		go o.run(job, url)
	}
	return job, created
}

type renditionResult struct {
	name string
	err  error
}

func (o *Orchestrator) run(job *Job, url string) {
	logger := o.log.With().Str(vblog.FieldJobKey, job.Key).Logger()

	job.markRunning()

	if err := os.MkdirAll(job.Dir, 0o750); err != nil {
		logger.Error().Err(err).Str(vblog.FieldOutputDir, job.Dir).Msg("cannot create job output directory")
		metrics.IncJobFailed("output")
		job.fail(fmt.Sprintf("create output directory: %v", err), o.opts.CacheTTL)
		return
	}

	tracks, err := o.prober.Probe(context.Background(), url)
	if err != nil {
		logger.Error().Err(err).Msg("probe failed")
		metrics.IncJobFailed("probe")
		job.fail(err.Error(), o.opts.CacheTTL)
		return
	}

	rends := PlanRenditions(url, job.Dir, tracks, o.opts.SegmentSeconds)
	if len(rends) == 0 {
		metrics.IncJobFailed("plan")
		job.fail("no playable tracks in source", o.opts.CacheTTL)
		return
	}

	logger.Info().
		Str(vblog.FieldEvent, "transcode_start").
		Int("renditions", len(rends)).
		Msg("launching transcoding processes")

	// Cancellation reaps rendition processes. Supervision only returns early
	// on a job failure, so the deferred cancel kills stragglers of failed
	// jobs while completed jobs see a no-op.
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan renditionResult, len(rends))
	for _, r := range rends {
		go func(r Rendition) {
			results <- renditionResult{name: r.Name, err: o.exec.Run(runCtx, r)}
		}(r)
	}

	o.supervise(job, rends, results, logger)
}

// supervise watches the rendition processes and the output directory. The
// master playlist is written once every sub-playlist is present on disk; any
// rendition failing before that marks the whole job failed. Failures after
// the job became ready are logged but cannot demote the state, and partial
// output is always left on disk for inspection.
func (o *Orchestrator) supervise(job *Job, rends []Rendition, results <-chan renditionResult, logger zerolog.Logger) {
	subPaths := make([]string, len(rends))
	for i, r := range rends {
		subPaths[i] = filepath.Join(job.Dir, r.Playlist)
	}

	ready := false
	running := len(rends)

	ticker := time.NewTicker(outputPollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(o.opts.StartTimeout)
	defer deadline.Stop()

	for running > 0 || !ready {
		select {
		case res := <-results:
			running--
			if res.err != nil {
				if !ready {
					logger.Error().
						Str(vblog.FieldRendition, res.name).
						Err(res.err).
						Msg("rendition failed, failing job")
					metrics.IncJobFailed("transcode")
					job.fail(res.err.Error(), o.opts.CacheTTL)
					return
				}
				// The job already served a master playlist; keep it Ready
				// and record the degraded rendition.
				logger.Warn().
					Str(vblog.FieldRendition, res.name).
					Err(res.err).
					Msg("rendition failed after job became ready")
				continue
			}
			if running == 0 && !ready {
				// All processes exited cleanly before the poll observed the
				// playlists; verify and assemble now.
				if !allExist(subPaths) {
					metrics.IncJobFailed("transcode")
					job.fail("transcoder exited without producing all sub-playlists", o.opts.CacheTTL)
					return
				}
				if !o.assemble(job, rends, logger) {
					return
				}
				ready = true
			}

		case <-ticker.C:
			if !ready && allExist(subPaths) {
				if !o.assemble(job, rends, logger) {
					return
				}
				ready = true
			}

		case <-deadline.C:
			if !ready {
				logger.Error().
					Dur("start_timeout", o.opts.StartTimeout).
					Msg("transcoder produced no output within the startup window")
				metrics.IncJobFailed("startup")
				job.fail("transcoder produced no output in time", o.opts.CacheTTL)
				return
			}
		}
	}

	logger.Info().Str(vblog.FieldEvent, "transcode_end").Msg("all renditions finished")
}

// assemble writes the master playlist and marks the job ready. Audio entries
// follow probe order with the first marked default.
func (o *Orchestrator) assemble(job *Job, rends []Rendition, logger zerolog.Logger) bool {
	var audios []playlist.AudioRendition
	videoURI := VideoPlaylist
	for _, r := range rends {
		switch r.Track.Kind {
		case probe.KindVideo:
			videoURI = r.Playlist
		case probe.KindAudio:
			audios = append(audios, playlist.AudioRendition{
				Name:     r.Track.Name,
				Language: r.Track.Language,
				URI:      r.Playlist,
				Default:  len(audios) == 0,
			})
		}
	}

	master := playlist.Master{Audios: audios, VideoURI: videoURI}
	if err := playlist.WriteMasterFile(filepath.Join(job.Dir, MasterPlaylist), master); err != nil {
		logger.Error().Err(err).Msg("cannot write master playlist")
		metrics.IncJobFailed("assemble")
		job.fail(fmt.Sprintf("write master playlist: %v", err), o.opts.CacheTTL)
		return false
	}

	job.markReady(o.opts.CacheTTL)
	metrics.JobsReadyTotal.Inc()
	logger.Info().
		Str(vblog.FieldEvent, "job_ready").
		Int("audio_renditions", len(audios)).
		Msg("master playlist written")
	return true
}

func allExist(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	const max = 512
	if len(s) > max {
		s = s[len(s)-max:]
	}
	if s == "" {
		s = "(no stderr output)"
	}
	return s
}
