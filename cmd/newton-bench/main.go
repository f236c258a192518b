// Command newton-bench searches a suite of positions to a fixed depth and
// writes one Parquet row per position.
package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/newton/internal/board"
	"github.com/hailam/newton/internal/report"
)

var (
	fensPath = flag.String("fens", "", "file with one FEN per line (default: built-in suite)")
	depth    = flag.Int("depth", 4, "search depth")
	outPath  = flag.String("out", "bench.parquet", "output parquet file")
	parallel = flag.Int64("parallel", 4, "parquet writer parallelism")
	workers  = flag.Int("workers", runtime.GOMAXPROCS(0), "concurrent searches")
)

// defaultSuite covers quiet, tactical, castling and promotion-heavy positions.
var defaultSuite = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
}

func main() {
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	fens := defaultSuite
	if *fensPath != "" {
		var err error
		if fens, err = readFENs(*fensPath); err != nil {
			log.Fatal().Err(err).Str("path", *fensPath).Msg("reading FEN suite")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	rows := make(chan report.BenchRow)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		return report.Bench(ctx, fens, *depth, *workers, rows)
	})
	g.Go(func() error {
		return report.Write(*outPath, rows, *parallel)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("benchmark failed")
	}

	written, err := report.Read(*outPath, *parallel)
	if err != nil {
		log.Fatal().Err(err).Msg("reading back results")
	}
	var nodes int64
	for _, r := range written {
		nodes += r.Nodes
	}
	elapsed := time.Since(start)
	log.Info().
		Int("positions", len(written)).
		Int64("nodes", nodes).
		Dur("elapsed", elapsed).
		Str("out", *outPath).
		Msg("benchmark complete")
}

func readFENs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var fens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fens = append(fens, line)
	}
	return fens, scanner.Err()
}
