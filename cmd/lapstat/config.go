package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lucasjlepore/lapstat"
	"github.com/lucasjlepore/lapstat/report"
)

var errUsage = errors.New("usage")

type config struct {
	InputPath     string
	Selection     lapstat.Selection
	Format        report.Format
	SkipInvalid   bool
	SamplesPath   string
	SamplesFormat string
	Verbose       bool
}

// loadEnv reads an optional .env file in the working directory. Variables
// already set in the environment are not overridden.
func loadEnv(stderr io.Writer) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "lapstat: ignoring .env: %v\n", err)
	}
}

// parseConfig parses args (without the program name). Env values only supply
// flag defaults; explicit flags win.
func parseConfig(args []string, getenv func(string) string, output io.Writer) (*config, error) {
	skipDefault, err := envBool(getenv, "LAPSTAT_SKIP_INVALID")
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("lapstat", flag.ContinueOnError)
	fs.SetOutput(output)
	var (
		filePath      = fs.String("file", "", "Path to input .tcx or .fit file")
		laps          = fs.String("laps", "", "Laps to report, 1-indexed, comma or space separated (default all)")
		format        = fs.String("format", envDefault(getenv, "LAPSTAT_FORMAT", "text"), "Report format: text|json")
		skipInvalid   = fs.Bool("skip-invalid", skipDefault, "Report laps with decreasing timestamps as -- instead of failing")
		samplesPath   = fs.String("samples", "", "Write the per-lap heart rate and power series to this file")
		samplesFormat = fs.String("samples-format", envDefault(getenv, "LAPSTAT_SAMPLES_FORMAT", "parquet"), "Samples format: parquet|csv")
		verbose       = fs.Bool("v", false, "Debug logging to stderr")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: lapstat [flags] activity.tcx|activity.fit [lap ...]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	rest := fs.Args()
	path := strings.TrimSpace(*filePath)
	if path == "" {
		if len(rest) == 0 {
			fs.Usage()
			return nil, fmt.Errorf("%w: missing input file", errUsage)
		}
		path, rest = rest[0], rest[1:]
	}

	tokens := append([]string{*laps}, rest...)
	sel, err := lapstat.ParseSelection(tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	f, err := report.ParseFormat(*format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	return &config{
		InputPath:     path,
		Selection:     sel,
		Format:        f,
		SkipInvalid:   *skipInvalid,
		SamplesPath:   strings.TrimSpace(*samplesPath),
		SamplesFormat: *samplesFormat,
		Verbose:       *verbose,
	}, nil
}

func envDefault(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(getenv func(string) string, key string) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s: %w", errUsage, key, err)
	}
	return b, nil
}
