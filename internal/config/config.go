package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the explicit configuration record passed into each pipeline run.
// Nothing here is ambient process state.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Gemini   Gemini   `toml:"gemini"`
	Tools    Tools    `toml:"tools"`
	Pipeline Pipeline `toml:"pipeline"`
	Silence  Silence  `toml:"silence"`
	Timing   Timing   `toml:"timing"`
	Phrase   Phrase   `toml:"phrase"`
	Log      Log      `toml:"log"`
}

type Paths struct {
	WorkDir string `toml:"work_dir"`
	OutDir  string `toml:"out_dir"`
}

type Gemini struct {
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	TTSModel string `toml:"tts_model"`
	Voice    string `toml:"voice"`
	BaseURL  string `toml:"base_url"`
}

type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

type Pipeline struct {
	Workers        int `toml:"workers"`
	MaxIdeas       int `toml:"max_ideas"`
	RetryAttempts  int `toml:"retry_attempts"`
	RetryBackoffMS int `toml:"retry_backoff_ms"`
}

type Silence struct {
	ThresholdDB  float64 `toml:"threshold_db"`
	MinSilenceMS int     `toml:"min_silence_ms"`
}

type Timing struct {
	AcceptMin   float64 `toml:"accept_min"`
	AcceptMax   float64 `toml:"accept_max"`
	ExtendedMin float64 `toml:"extended_min"`
	ExtendedMax float64 `toml:"extended_max"`
}

type Phrase struct {
	HardBreakMS int `toml:"hard_break_ms"`
	MaxWords    int `toml:"max_words"`
	MaxSpanMS   int `toml:"max_span_ms"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file overrides anything.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: ".voclip",
			OutDir:  "out",
		},
		Gemini: Gemini{
			Model:    "gemini-2.5-flash",
			TTSModel: "gemini-2.5-flash-preview-tts",
			Voice:    "Kore",
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Pipeline: Pipeline{
			Workers:        2,
			MaxIdeas:       6,
			RetryAttempts:  3,
			RetryBackoffMS: 2000,
		},
		Silence: Silence{
			ThresholdDB:  -40,
			MinSilenceMS: 200,
		},
		Timing: Timing{
			AcceptMin:   0.85,
			AcceptMax:   1.25,
			ExtendedMin: 0.50,
			ExtendedMax: 1.80,
		},
		Phrase: Phrase{
			HardBreakMS: 300,
			MaxWords:    9,
			MaxSpanMS:   6000,
		},
		Log: Log{Level: "info", Format: ""},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return errors.New("gemini api_key is required (config or GEMINI_API_KEY)")
	}
	if c.Pipeline.Workers <= 0 {
		return errors.New("pipeline workers must be > 0")
	}
	if c.Pipeline.MaxIdeas <= 0 {
		return errors.New("pipeline max_ideas must be > 0")
	}
	if c.Pipeline.RetryAttempts <= 0 {
		return errors.New("pipeline retry_attempts must be > 0")
	}
	if c.Timing.AcceptMin <= 0 || c.Timing.AcceptMax < c.Timing.AcceptMin {
		return fmt.Errorf("timing acceptable band [%v, %v] is invalid", c.Timing.AcceptMin, c.Timing.AcceptMax)
	}
	if c.Timing.ExtendedMin > c.Timing.AcceptMin || c.Timing.ExtendedMax < c.Timing.AcceptMax {
		return errors.New("timing extended band must contain the acceptable band")
	}
	if c.Silence.MinSilenceMS <= 0 {
		return errors.New("silence min_silence_ms must be > 0")
	}
	if c.Phrase.HardBreakMS <= 0 || c.Phrase.MaxWords <= 0 || c.Phrase.MaxSpanMS <= 0 {
		return errors.New("phrase hard_break_ms, max_words and max_span_ms must be > 0")
	}
	return nil
}

// WriteSample writes the annotated sample config, refusing to clobber an
// existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func (p Pipeline) RetryBackoff() time.Duration {
	return time.Duration(p.RetryBackoffMS) * time.Millisecond
}
