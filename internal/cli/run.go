package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"voclip/internal/config"
	"voclip/internal/logging"
	"voclip/internal/pipeline"
	"voclip/internal/ports/adapters/ffmpeg"
	"voclip/internal/ports/adapters/gemini"
	"voclip/internal/ports/adapters/ytdlp"
	"voclip/internal/store"
	"voclip/internal/usecase"
)

func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <source>",
		Short: "Process a local video file or remote URL into voiced clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0])
		},
	}
	cmd.Flags().String("config", "voclip.toml", "Config file path")
	cmd.Flags().String("out", "", "Output directory (overrides config)")
	cmd.Flags().Int("clips", 0, "Max number of clips (overrides config)")
	cmd.Flags().Int("workers", 0, "Concurrent idea pipelines (overrides config)")
	return cmd
}

func runBatch(cmd *cobra.Command, source string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		cfg.Paths.OutDir = v
	}
	if v, _ := cmd.Flags().GetInt("clips"); v > 0 {
		cfg.Pipeline.MaxIdeas = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.Pipeline.Workers = v
	}

	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ai := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.TTSModel, cfg.Gemini.Voice, cfg.Gemini.BaseURL)
	sum, err := pipeline.Run(ctx, pipeline.Options{
		Config: cfg,
		Source: source,
		Deps: pipeline.Deps{
			Media:   ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe),
			TTS:     ai,
			Ideas:   ai,
			Fetcher: ytdlp.New(),
		},
		Log: log,
		OnEvent: func(ev usecase.Event) {
			if ev.State == store.StatusFailed {
				return // failures are summarized in the final table
			}
			log.Info("clip progress", "ordinal", ev.Ordinal+1, "state", ev.State)
		},
	})
	printSummary(cmd, sum)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "final video: %s\n", sum.FinalVideo)
	return nil
}

func printSummary(cmd *cobra.Command, sum pipeline.Summary) {
	if sum.RunID == "" {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Status", "Detail"})
	for i := 0; i < sum.Succeeded+len(sum.Failed); i++ {
		t.AppendRow(summaryRow(i, sum))
	}
	t.Render()
}

func summaryRow(ordinal int, sum pipeline.Summary) table.Row {
	for _, f := range sum.Failed {
		if f.Ordinal == ordinal {
			return table.Row{ordinal + 1, text.FgRed.Sprint("failed"), f.Reason}
		}
	}
	return table.Row{ordinal + 1, text.FgGreen.Sprint("done"), ""}
}
