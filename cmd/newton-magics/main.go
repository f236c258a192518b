// Command newton-magics searches for rook and bishop magic multipliers and
// prints them as Go arrays for internal/board/magic.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/newton/internal/board"
)

var (
	seed    = flag.Uint64("seed", 0x9e3779b97f4a7c15, "base seed of the search")
	workers = flag.Int("workers", runtime.GOMAXPROCS(0), "concurrent square searches")
	verbose = flag.Bool("v", false, "log every square")
)

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	start := time.Now()
	rooks, err := search(context.Background(), board.Rook, *seed, *workers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("rook search failed")
	}
	bishops, err := search(context.Background(), board.Bishop, *seed, *workers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bishop search failed")
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("all squares verified")

	writeTable(os.Stdout, "rookMagicNumbers", rooks)
	fmt.Fprintln(os.Stdout)
	writeTable(os.Stdout, "bishopMagicNumbers", bishops)
}

// search finds a verified multiplier for every square, one square per
// goroutine. Seeds are derived per square so results do not depend on
// scheduling.
func search(ctx context.Context, pt board.PieceType, seed uint64, workers int, log zerolog.Logger) ([64]uint64, error) {
	var magics [64]uint64

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for sq := board.A1; sq <= board.H8; sq++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m := board.FindMagic(sq, pt, seed^uint64(sq)*0x100000001b3)
			if !board.VerifyMagic(sq, pt, m) {
				return fmt.Errorf("%s %s: search returned a colliding magic %#016x", pt, sq, m)
			}
			magics[sq] = m
			log.Debug().Str("piece", pt.String()).Str("square", sq.String()).Msgf("%#016x", m)
			return nil
		})
	}
	return magics, g.Wait()
}

func writeTable(w io.Writer, name string, magics [64]uint64) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "var %s = [64]uint64{\n", name)
	for i, m := range magics {
		if i%4 == 0 {
			sb.WriteString("\t")
		}
		fmt.Fprintf(&sb, "0x%016x,", m)
		if i%4 == 3 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("}\n")
	io.WriteString(w, sb.String())
}
