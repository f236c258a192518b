package main

import (
	"flag"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/hailam/newton/internal/engine"
	"github.com/hailam/newton/internal/storage"
	"github.com/hailam/newton/internal/uci"
)

var (
	cpuprofile   = flag.String("cpuprofile", "", "write cpu profile to file")
	logLevel     = flag.String("log-level", "", "log level: debug, info, warn or error")
	journalDir   = flag.String("journal", "", "analysis journal directory (\"default\" for the data dir, empty disables)")
	defaultDepth = flag.Int("default-depth", 0, "search depth when go gives none")
)

func main() {
	flag.Parse()

	log := newLogger(envOr(*logLevel, "NEWTON_LOG_LEVEL", "info"))

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := envOr(*cpuprofile, "CPUPROFILE", "")
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	depth := *defaultDepth
	if depth == 0 {
		if d, err := strconv.Atoi(os.Getenv("NEWTON_DEFAULT_DEPTH")); err == nil {
			depth = d
		}
	}

	journal := openJournal(envOr(*journalDir, "NEWTON_JOURNAL", ""), log)
	if journal != nil {
		defer journal.Close()
	}

	eng := engine.NewEngine(nil)
	protocol := uci.New(eng, journal, log, uci.Options{DefaultDepth: depth})
	if err := protocol.Run(os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("reading commands")
	}
}

// newLogger writes JSON lines to stderr; stdout carries the protocol.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// openJournal opens the analysis journal, or returns nil when disabled or
// unavailable.
func openJournal(dir string, log zerolog.Logger) *storage.Journal {
	if dir == "" {
		return nil
	}
	if dir == "default" {
		d, err := storage.GetJournalDir()
		if err != nil {
			log.Warn().Err(err).Msg("journal disabled: no data directory")
			return nil
		}
		dir = d
	}
	journal, err := storage.Open(dir, log)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("journal disabled")
		return nil
	}
	log.Info().Str("dir", dir).Msg("journal opened")
	return journal
}

func envOr(value, env, fallback string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}
