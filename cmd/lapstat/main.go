package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lucasjlepore/lapstat/pipeline"
	"github.com/lucasjlepore/lapstat/report"
)

func main() {
	loadEnv(os.Stderr)
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

func run(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, getenv, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "lapstat: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	result, err := pipeline.Run(pipeline.Options{
		InputPath:       cfg.InputPath,
		Selection:       cfg.Selection,
		SkipInvalidLaps: cfg.SkipInvalid,
		SamplesPath:     cfg.SamplesPath,
		SamplesFormat:   cfg.SamplesFormat,
		Logger:          logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "lapstat: %v\n", err)
		return 1
	}

	// Render fully before writing so a failure leaves stdout empty.
	var buf bytes.Buffer
	if err := report.Write(&buf, cfg.Format, result.Summaries); err != nil {
		fmt.Fprintf(stderr, "lapstat: %v\n", err)
		return 1
	}
	if _, err := stdout.Write(buf.Bytes()); err != nil {
		fmt.Fprintf(stderr, "lapstat: %v\n", err)
		return 1
	}
	return 0
}
