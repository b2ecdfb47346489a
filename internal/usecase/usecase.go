// Package usecase runs one clip idea through the timing engine: audio
// stretching, silence analysis, word estimation, phrase segmentation, timing
// map build, then handoff to the external merge/burn toolkit.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"voclip/internal/domain/phrase"
	"voclip/internal/domain/silence"
	"voclip/internal/domain/subtitles"
	"voclip/internal/domain/timing"
	"voclip/internal/media"
	"voclip/internal/ports"
	"voclip/internal/store"
	"voclip/internal/types"
)

type Deps struct {
	Media ports.MediaToolkit
	TTS   ports.SpeechSynthesizer
}

// Params carries the engine thresholds for one run. It is an explicit record
// so pipeline instances stay deterministic and independently testable.
type Params struct {
	Bands         timing.Bands
	Silence       silence.Params
	Phrase        phrase.Params
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Event is one typed progress notification. State events fire on every
// successful transition; a terminal failure carries Err.
type Event struct {
	Ordinal int
	IdeaID  string
	State   store.Status
	Err     error
}

// Input describes one idea's pipeline run. ScratchDir is private to this
// idea and never shared.
type Input struct {
	Ordinal    int
	IdeaID     string
	Idea       types.ClipIdea
	SourcePath string
	ScratchDir string
	OutClip    string
	OutCues    string
	Emit       func(Event)
}

type Pipeline struct {
	d   Deps
	p   Params
	log *slog.Logger
}

func New(d Deps, p Params, log *slog.Logger) Pipeline {
	if p.RetryAttempts <= 0 {
		p.RetryAttempts = 1
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return Pipeline{d: d, p: p, log: log}
}

// Run executes the stage sequence for one idea. Stages are strictly
// sequential; the context is observed between every pair of stages so a
// cancelled batch never starts new work.
func (u Pipeline) Run(ctx context.Context, in Input) (types.ClipResult, error) {
	log := u.log.With("idea", in.IdeaID, "ordinal", in.Ordinal, "title", in.Idea.Title)
	emit := in.Emit
	if emit == nil {
		emit = func(Event) {}
	}
	step := func(state store.Status) {
		emit(Event{Ordinal: in.Ordinal, IdeaID: in.IdeaID, State: state})
	}
	fail := func(err error) (types.ClipResult, error) {
		emit(Event{Ordinal: in.Ordinal, IdeaID: in.IdeaID, State: store.StatusFailed, Err: err})
		return types.ClipResult{}, err
	}

	if err := os.MkdirAll(in.ScratchDir, 0o755); err != nil {
		return fail(err)
	}

	// Cut the source segment and learn the exact target duration.
	clipPath := filepath.Join(in.ScratchDir, "clip.mp4")
	err := u.retry(ctx, log, "cut clip", func() error {
		return u.d.Media.CutClip(ctx, in.SourcePath, in.Idea.Start(), in.Idea.End(), clipPath)
	})
	if err != nil {
		return fail(err)
	}
	target, err := u.d.Media.ProbeDuration(ctx, clipPath)
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Synthesize the voiceover.
	voicePath := filepath.Join(in.ScratchDir, "voice.wav")
	err = u.retry(ctx, log, "synthesize", func() error {
		return u.d.TTS.Synthesize(ctx, in.Idea.Script, in.Idea.VoiceStyle, voicePath)
	})
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Reconcile the voiceover duration against the clip.
	track, err := u.reconcile(ctx, log, voicePath, target, in.ScratchDir)
	if err != nil {
		return fail(err)
	}
	adjustedPath := filepath.Join(in.ScratchDir, "adjusted.wav")
	if err := media.EncodeWAVFile(adjustedPath, track); err != nil {
		return fail(err)
	}
	step(store.StatusAudioAdjusted)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Silence structure of the adjusted voiceover.
	silences, err := silence.Detect(track, u.p.Silence)
	if err != nil {
		if !errors.Is(err, silence.ErrInconclusive) {
			return fail(err)
		}
		log.Warn("falling back to readability-cap breaking", "reason", err)
	}
	step(store.StatusSilenceAnalyzed)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Word estimates, phrases, timing map.
	tokens := timing.EstimateWords(in.Idea.Script, track.Duration())
	phrases := phrase.Segment(tokens, silences, u.p.Phrase)
	tm, err := phrase.BuildTimingMap(phrases, track.Duration())
	if err != nil {
		// Invariant violation: a defect in an upstream stage, surfaced as-is.
		log.Error("timing map rejected", "error", err)
		return fail(err)
	}
	cues := tm.Cues()
	if err := writeCues(in.OutCues, cues); err != nil {
		return fail(err)
	}
	step(store.StatusTimingBuilt)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// External merge and burn-in.
	assPath := filepath.Join(in.ScratchDir, "subs.ass")
	if err := os.WriteFile(assPath, []byte(subtitles.RenderASS(tm)), 0o644); err != nil {
		return fail(err)
	}
	mergedPath := filepath.Join(in.ScratchDir, "merged.mp4")
	err = u.retry(ctx, log, "merge audio", func() error {
		return u.d.Media.MergeAudio(ctx, clipPath, adjustedPath, mergedPath)
	})
	if err != nil {
		return fail(err)
	}
	step(store.StatusMerged)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	err = u.retry(ctx, log, "burn subtitles", func() error {
		return u.d.Media.BurnSubtitles(ctx, mergedPath, assPath, in.OutClip)
	})
	if err != nil {
		return fail(err)
	}

	step(store.StatusDone)
	return types.ClipResult{
		Ordinal:  in.Ordinal,
		Idea:     in.Idea,
		VideoRef: in.OutClip,
		AudioRef: adjustedPath,
		Cues:     cues,
	}, nil
}

// reconcile plans the stretch, runs it through the toolkit and finalizes the
// track with the plan's trim/pad step.
func (u Pipeline) reconcile(ctx context.Context, log *slog.Logger, voicePath string, target time.Duration, scratch string) (media.Track, error) {
	raw, err := u.d.Media.ProbeDuration(ctx, voicePath)
	if err != nil {
		return media.Track{}, err
	}
	plan, err := timing.Reconcile(raw, target, u.p.Bands)
	if err != nil {
		return media.Track{}, err
	}
	log.Info("reconciling voiceover", "raw", raw, "target", target, "factor", plan.Factor)

	stretchedPath := voicePath
	if math.Abs(plan.Factor-1) > 1e-3 {
		stretchedPath = filepath.Join(scratch, "stretched.wav")
		err = u.retry(ctx, log, "stretch audio", func() error {
			return u.d.Media.StretchAudio(ctx, voicePath, plan.Factor, stretchedPath)
		})
		if err != nil {
			return media.Track{}, err
		}
	}
	track, err := media.DecodeWAVFile(stretchedPath)
	if err != nil {
		return media.Track{}, err
	}
	return plan.Finalize(track, target)
}

// retry runs an external call up to RetryAttempts times with doubling
// backoff. Context cancellation is returned immediately.
func (u Pipeline) retry(ctx context.Context, log *slog.Logger, op string, fn func() error) error {
	backoff := u.p.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	var lastErr error
	for attempt := 1; attempt <= u.p.RetryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if attempt == u.p.RetryAttempts {
			break
		}
		log.Warn("external call failed, retrying", "op", op, "attempt", attempt, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func writeCues(path string, cues []types.Cue) error {
	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(cues, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
