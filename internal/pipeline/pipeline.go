// Package pipeline orchestrates a full batch run: fetch the source, generate
// ideas, process each idea through its own clip pipeline on a bounded worker
// pool, then assemble the survivors in their original order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"voclip/internal/config"
	"voclip/internal/domain/phrase"
	"voclip/internal/domain/silence"
	"voclip/internal/domain/timing"
	"voclip/internal/ports"
	"voclip/internal/store"
	"voclip/internal/types"
	"voclip/internal/usecase"
)

type Deps struct {
	Media   ports.MediaToolkit
	TTS     ports.SpeechSynthesizer
	Ideas   ports.IdeaSource
	Fetcher ports.SourceFetcher
}

type Options struct {
	Config config.Config
	Source string // local path or http(s) URL
	Deps   Deps
	Log    *slog.Logger
	// OnEvent observes per-idea progress. Events are delivered sequentially
	// from a single goroutine, so the callback needs no locking of its own.
	OnEvent func(usecase.Event)
}

// FailedIdea reports one idea that was excluded from assembly.
type FailedIdea struct {
	Ordinal int
	Title   string
	Reason  string
}

type Summary struct {
	RunID      string
	OutDir     string
	FinalVideo string
	Manifest   string
	Succeeded  int
	Failed     []FailedIdea
}

// Run executes a batch. Individual idea failures are reported in the
// summary; the batch itself fails only when zero ideas succeed.
func Run(ctx context.Context, opts Options) (Summary, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return Summary{}, fmt.Errorf("config: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Source == "" {
		return Summary{}, errors.New("source is required")
	}

	if err := os.MkdirAll(cfg.Paths.WorkDir, 0o755); err != nil {
		return Summary{}, err
	}
	lock := flock.New(filepath.Join(cfg.Paths.WorkDir, "voclip.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("lock work dir: %w", err)
	}
	if !locked {
		return Summary{}, fmt.Errorf("another run is already using %s", cfg.Paths.WorkDir)
	}
	defer lock.Unlock()

	runID := uuid.NewString()
	log = log.With("run", shortID(runID))

	source, err := resolveSource(ctx, opts, cfg)
	if err != nil {
		return Summary{}, err
	}

	log.Info("generating clip ideas", "source", source)
	ideas, err := opts.Deps.Ideas.Ideas(ctx, source, cfg.Pipeline.MaxIdeas)
	if err != nil {
		return Summary{}, fmt.Errorf("generate ideas: %w", err)
	}
	if len(ideas) == 0 {
		return Summary{}, errors.New("idea generator returned no usable clips")
	}
	log.Info("ideas generated", "count", len(ideas))

	st, err := store.Open(filepath.Join(cfg.Paths.WorkDir, "voclip.db"))
	if err != nil {
		return Summary{}, err
	}
	defer st.Close()

	ideaIDs := make([]string, len(ideas))
	for i, idea := range ideas {
		ideaIDs[i] = uuid.NewString()
		if err := st.Add(ctx, store.Record{ID: ideaIDs[i], RunID: runID, Ordinal: i, Title: idea.Title}); err != nil {
			return Summary{}, err
		}
	}

	outDir := buildRunOutDir(cfg.Paths.OutDir, source, runID, time.Now())
	clipsDir := filepath.Join(outDir, "clips")
	cuesDir := filepath.Join(outDir, "cues")
	for _, dir := range []string{clipsDir, cuesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, err
		}
	}

	uc := usecase.New(
		usecase.Deps{Media: opts.Deps.Media, TTS: opts.Deps.TTS},
		engineParams(cfg),
		log,
	)

	// Workers run concurrently, so events funnel through one channel and a
	// single collector keeps the OnEvent contract sequential.
	var eventCh chan usecase.Event
	var eventWG sync.WaitGroup
	if opts.OnEvent != nil {
		eventCh = make(chan usecase.Event, len(ideas))
		eventWG.Add(1)
		go func() {
			defer eventWG.Done()
			for ev := range eventCh {
				opts.OnEvent(ev)
			}
		}()
	}

	results := runPool(ctx, runPoolInput{
		cfg:     cfg,
		log:     log,
		store:   st,
		uc:      uc,
		ideas:   ideas,
		ideaIDs: ideaIDs,
		runID:   runID,
		source:  source,
		outDir:  outDir,
		events:  eventCh,
	})
	if eventCh != nil {
		close(eventCh)
		eventWG.Wait()
	}

	summary := Summary{RunID: runID, OutDir: outDir}
	var ok []*types.ClipResult
	for i, r := range results {
		if r.err != nil {
			summary.Failed = append(summary.Failed, FailedIdea{Ordinal: i, Title: ideas[i].Title, Reason: r.err.Error()})
			continue
		}
		ok = append(ok, r.res)
	}
	summary.Succeeded = len(ok)
	if len(ok) == 0 {
		return summary, fmt.Errorf("all %d ideas failed", len(ideas))
	}

	finalVideo, manifestPath, err := assemble(ctx, opts.Deps.Media, outDir, source, runID, ok)
	if err != nil {
		return summary, fmt.Errorf("assemble: %w", err)
	}
	summary.FinalVideo = finalVideo
	summary.Manifest = manifestPath
	log.Info("batch complete", "succeeded", summary.Succeeded, "failed", len(summary.Failed), "output", finalVideo)
	return summary, nil
}

type ideaResult struct {
	res *types.ClipResult
	err error
}

type runPoolInput struct {
	cfg     config.Config
	log     *slog.Logger
	store   *store.Store
	uc      usecase.Pipeline
	ideas   []types.ClipIdea
	ideaIDs []string
	runID   string
	source  string
	outDir  string
	events  chan<- usecase.Event
}

// runPool executes the idea pipelines with bounded concurrency. The results
// slice preserves the original idea ordering regardless of completion order.
func runPool(ctx context.Context, in runPoolInput) []ideaResult {
	results := make([]ideaResult, len(in.ideas))
	sem := make(chan struct{}, in.cfg.Pipeline.Workers)
	var wg sync.WaitGroup

	for i := range in.ideas {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// A cancelled batch starts no new pipelines.
			if err := ctx.Err(); err != nil {
				results[i] = ideaResult{err: err}
				recordFailure(in, i, err)
				return
			}

			id := fmt.Sprintf("%03d", i+1)
			res, err := in.uc.Run(ctx, usecase.Input{
				Ordinal:    i,
				IdeaID:     in.ideaIDs[i],
				Idea:       in.ideas[i],
				SourcePath: in.source,
				ScratchDir: filepath.Join(in.cfg.Paths.WorkDir, "runs", shortID(in.runID), id),
				OutClip:    filepath.Join(in.outDir, "clips", id+".mp4"),
				OutCues:    filepath.Join(in.outDir, "cues", id+".json"),
				Emit:       emitFunc(in),
			})
			if err != nil {
				in.log.Warn("idea failed", "ordinal", i, "title", in.ideas[i].Title, "error", err)
				results[i] = ideaResult{err: err}
				return
			}
			results[i] = ideaResult{res: &res}
		}(i)
	}
	wg.Wait()
	return results
}

// emitFunc persists each state transition and forwards the event to the
// collector channel. Store errors are logged, never fatal.
func emitFunc(in runPoolInput) func(usecase.Event) {
	return func(ev usecase.Event) {
		var err error
		if ev.State == store.StatusFailed {
			reason := "unknown"
			if ev.Err != nil {
				reason = ev.Err.Error()
			}
			err = in.store.Fail(context.Background(), ev.IdeaID, reason)
		} else {
			err = in.store.SetStatus(context.Background(), ev.IdeaID, ev.State)
		}
		if err != nil {
			in.log.Warn("state persistence failed", "idea", ev.IdeaID, "error", err)
		}
		if in.events != nil {
			in.events <- ev
		}
	}
}

func recordFailure(in runPoolInput, i int, err error) {
	if ferr := in.store.Fail(context.Background(), in.ideaIDs[i], err.Error()); ferr != nil {
		in.log.Warn("state persistence failed", "idea", in.ideaIDs[i], "error", ferr)
	}
}

func resolveSource(ctx context.Context, opts Options, cfg config.Config) (string, error) {
	src := opts.Source
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if opts.Deps.Fetcher == nil {
			return "", errors.New("remote source given but no fetcher configured")
		}
		local, err := opts.Deps.Fetcher.Fetch(ctx, src, filepath.Join(cfg.Paths.WorkDir, "sources"))
		if err != nil {
			return "", fmt.Errorf("fetch source: %w", err)
		}
		return local, nil
	}
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("source: %w", err)
	}
	return src, nil
}

func engineParams(cfg config.Config) usecase.Params {
	return usecase.Params{
		Bands: timing.Bands{
			AcceptMin:   cfg.Timing.AcceptMin,
			AcceptMax:   cfg.Timing.AcceptMax,
			ExtendedMin: cfg.Timing.ExtendedMin,
			ExtendedMax: cfg.Timing.ExtendedMax,
		},
		Silence: silence.Params{
			ThresholdDB: cfg.Silence.ThresholdDB,
			MinDuration: time.Duration(cfg.Silence.MinSilenceMS) * time.Millisecond,
		},
		Phrase: phrase.Params{
			HardBreak: time.Duration(cfg.Phrase.HardBreakMS) * time.Millisecond,
			MaxWords:  cfg.Phrase.MaxWords,
			MaxSpan:   time.Duration(cfg.Phrase.MaxSpanMS) * time.Millisecond,
		},
		RetryAttempts: cfg.Pipeline.RetryAttempts,
		RetryBackoff:  cfg.Pipeline.RetryBackoff(),
	}
}
