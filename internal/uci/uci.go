// Package uci adapts the engine to the Universal Chess Interface text
// protocol.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/newton/internal/board"
	"github.com/hailam/newton/internal/engine"
	"github.com/hailam/newton/internal/perft"
	"github.com/hailam/newton/internal/storage"
)

// Engine identification sent in reply to "uci".
const (
	EngineName   = "Newton"
	EngineAuthor = "Newton developers"
)

// Options configures the protocol handler.
type Options struct {
	// DefaultDepth is the search depth when "go" gives none (0 keeps the
	// engine default).
	DefaultDepth int
	// PerftWorkers bounds the goroutines used by "perft" (0 = GOMAXPROCS).
	PerftWorkers int
}

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine  *engine.Engine
	journal *storage.Journal // nil disables the journal
	log     zerolog.Logger
	opts    Options

	outMu sync.Mutex
	out   io.Writer

	// Search state, owned by the command loop.
	searchDone chan struct{}
	cancel     context.CancelFunc
}

// New creates a protocol handler around eng. journal may be nil.
func New(eng *engine.Engine, journal *storage.Journal, log zerolog.Logger, opts Options) *UCI {
	if opts.DefaultDepth > 0 {
		eng.SetMaxDepth(opts.DefaultDepth)
	}
	if opts.PerftWorkers <= 0 {
		opts.PerftWorkers = runtime.GOMAXPROCS(0)
	}
	u := &UCI{
		engine:  eng,
		journal: journal,
		log:     log,
		opts:    opts,
	}
	eng.OnInfo = u.sendInfo
	return u
}

// Run reads commands from r and writes replies to w until "quit" or end of
// input. A search still running at that point is stopped and awaited.
func (u *UCI) Run(r io.Reader, w io.Writer) error {
	u.out = w
	defer u.handleStop()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			return nil
		// Debug commands
		case "d":
			u.engine.WithPosition(func(pos *board.Position) {
				u.send("%s", pos.String())
			})
		case "perft":
			u.handlePerft(args)
		case "journal":
			u.handleJournal()
		default:
			u.log.Warn().Str("command", cmd).Msg("unknown command ignored")
		}
	}
	return scanner.Err()
}

// send writes one protocol line. Search goroutines and the command loop both
// write, so output is serialized.
func (u *UCI) send(format string, args ...interface{}) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name %s", EngineName)
	u.send("id author %s", EngineAuthor)
	u.send("uciok")
}

// handleNewGame resets the position. It waits for a running search.
func (u *UCI) handleNewGame() {
	u.engine.Reset()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// A bad FEN leaves the current position alone. A bad move ends the move list;
// the moves before it stay applied.
func (u *UCI) handlePosition(args []string) {
	pos, err := parsePosition(args)
	if pos == nil {
		u.log.Warn().Err(err).Strs("args", args).Msg("position ignored")
		return
	}
	if err != nil {
		u.log.Warn().Err(err).Msg("move list truncated")
	}
	u.engine.SetPosition(pos)
}

// parsePosition builds the position described by the arguments of a
// "position" command. On a bad move it returns the position reached so far
// together with the error.
func parsePosition(args []string) (*board.Position, error) {
	if len(args) == 0 {
		return nil, errors.New("missing position")
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown position type %q", args[0])
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			if err := applyMove(pos, s); err != nil {
				return pos, err
			}
		}
	}
	return pos, nil
}

func applyMove(pos *board.Position, s string) error {
	m, err := board.ParseMove(pos, s)
	if err != nil {
		return err
	}
	if !pos.Make(m) {
		return fmt.Errorf("%s: %w", s, board.ErrIllegalMove)
	}
	return nil
}

// GoOptions holds parsed "go" command options, in protocol units.
type GoOptions struct {
	Depth    int
	MoveTime time.Duration
	Infinite bool
	WTime    time.Duration
	BTime    time.Duration
	WInc     time.Duration
	BInc     time.Duration
}

// parseGoOptions parses "go" command arguments. Unknown or malformed tokens
// are skipped.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	millis := func(i int) time.Duration {
		ms, err := strconv.Atoi(args[i])
		if err != nil || ms < 0 {
			return 0
		}
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "infinite":
			opts.Infinite = true
			continue
		case "depth", "movetime", "wtime", "btime", "winc", "binc":
		default:
			continue
		}
		if i+1 >= len(args) {
			break
		}
		switch args[i] {
		case "depth":
			if d, err := strconv.Atoi(args[i+1]); err == nil && d > 0 {
				opts.Depth = d
			}
		case "movetime":
			opts.MoveTime = millis(i + 1)
		case "wtime":
			opts.WTime = millis(i + 1)
		case "btime":
			opts.BTime = millis(i + 1)
		case "winc":
			opts.WInc = millis(i + 1)
		case "binc":
			opts.BInc = millis(i + 1)
		}
		i++
	}

	return opts
}

// Limits converts the options to engine limits for the side to move: only
// that side's clock and increment are used.
func (o GoOptions) Limits(stm board.Color) engine.SearchLimits {
	limits := engine.SearchLimits{
		Depth:    o.Depth,
		MoveTime: o.MoveTime,
		Infinite: o.Infinite,
	}
	if stm == board.White {
		limits.Time, limits.Inc = o.WTime, o.WInc
	} else {
		limits.Time, limits.Inc = o.BTime, o.BInc
	}
	return limits
}

// handleGo starts a search on its own goroutine. A previous search is
// awaited first.
func (u *UCI) handleGo(args []string) {
	u.wait()

	opts := parseGoOptions(args)
	var stm board.Color
	u.engine.WithPosition(func(pos *board.Position) {
		stm = pos.SideToMove
	})
	limits := opts.Limits(stm)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	u.cancel = cancel
	u.searchDone = done

	u.log.Debug().
		Int("depth", limits.Depth).
		Dur("time", limits.Time).
		Dur("inc", limits.Inc).
		Dur("movetime", limits.MoveTime).
		Bool("infinite", limits.Infinite).
		Msg("search started")

	go func() {
		defer close(done)
		defer cancel()

		result := u.engine.Search(ctx, limits)
		u.send("bestmove %s", result.BestMove)

		u.log.Debug().
			Str("bestmove", result.BestMove.String()).
			Int("score", result.Score).
			Int("depth", result.Depth).
			Uint64("nodes", result.Nodes).
			Dur("elapsed", result.Time).
			Msg("search finished")

		u.record(result)
	}()
}

// record stores a finished search in the journal.
func (u *UCI) record(result engine.SearchResult) {
	if u.journal == nil || result.BestMove == board.NoMove {
		return
	}
	_, err := u.journal.Put(storage.Record{
		Hash:     result.Hash,
		FEN:      result.FEN,
		Depth:    result.Depth,
		Score:    result.Score,
		BestMove: result.BestMove.String(),
		Nodes:    result.Nodes,
		Elapsed:  result.Time,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("journal write failed")
	}
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	parts = append(parts, formatScore(info.Score))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if info.BestMove != board.NoMove {
		parts = append(parts, "pv "+info.BestMove.String())
	}

	u.send("info %s", strings.Join(parts, " "))
}

func formatScore(score int) string {
	if engine.IsMateScore(score) {
		return fmt.Sprintf("score mate %d", engine.MateIn(score))
	}
	return fmt.Sprintf("score cp %d", score)
}

// handleStop asks the running search to finish its current depth and waits
// for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel == nil {
		return
	}
	u.cancel()
	u.engine.Stop()
	u.wait()
}

// wait blocks until the last started search has returned.
func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
	}
	u.searchDone = nil
	u.cancel = nil
}

// handlePerft runs a perft divide on the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			u.log.Warn().Strs("args", args).Msg("perft ignored")
			return
		}
		depth = d
	}

	start := time.Now()
	entries, err := u.engine.Perft(context.Background(), depth, u.opts.PerftWorkers)
	if err != nil {
		u.log.Error().Err(err).Msg("perft failed")
		return
	}
	elapsed := time.Since(start)

	for _, e := range entries {
		u.send("%s: %d", e.Move, e.Nodes)
	}
	nodes := perft.Total(entries)
	u.send("")
	u.send("Nodes searched: %d", nodes)
	u.log.Debug().Int("depth", depth).Uint64("nodes", nodes).Dur("elapsed", elapsed).Msg("perft finished")
}

// handleJournal reports the stored analysis of the current position. A
// running search is awaited so that its result is included.
func (u *UCI) handleJournal() {
	if u.journal == nil {
		u.send("info string journal disabled")
		return
	}
	u.wait()

	var hash uint64
	u.engine.WithPosition(func(pos *board.Position) {
		hash = pos.Hash()
	})

	rec, err := u.journal.Get(hash)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		u.send("info string journal empty")
	case err != nil:
		u.log.Error().Err(err).Msg("journal read failed")
	default:
		u.send("info string journal depth %d %s bestmove %s nodes %d",
			rec.Depth, formatScore(rec.Score), rec.BestMove, rec.Nodes)
	}
}
