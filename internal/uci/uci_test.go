package uci

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/newton/internal/board"
	"github.com/hailam/newton/internal/engine"
	"github.com/hailam/newton/internal/storage"
)

// session feeds script to a fresh handler and returns the engine and
// everything written. Run waits for any search, so the output is complete.
func session(t *testing.T, journal *storage.Journal, script ...string) (*engine.Engine, string) {
	t.Helper()
	eng := engine.NewEngine(nil)
	u := New(eng, journal, zerolog.Nop(), Options{PerftWorkers: 2})

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	if err := u.Run(in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return eng, out.String()
}

func fenOf(eng *engine.Engine) string {
	var fen string
	eng.WithPosition(func(pos *board.Position) {
		fen = pos.FEN()
	})
	return fen
}

func fenAfter(t *testing.T, fen string, moves ...string) string {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range moves {
		if err := applyMove(pos, s); err != nil {
			t.Fatal(err)
		}
	}
	return pos.FEN()
}

func TestHandshake(t *testing.T) {
	_, out := session(t, nil, "uci", "isready", "quit", "isready")

	for _, want := range []string{"id name " + EngineName, "id author", "uciok", "readyok"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "readyok") != 1 {
		t.Errorf("commands after quit were processed:\n%s", out)
	}
}

func TestPositionCommand(t *testing.T) {
	kiwipete := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

	tests := []struct {
		name   string
		script []string
		want   string
	}{
		{"startpos", []string{"position startpos"}, board.StartFEN},
		{
			"startpos moves",
			[]string{"position startpos moves e2e4 e7e5 g1f3"},
			fenAfter(t, board.StartFEN, "e2e4", "e7e5", "g1f3"),
		},
		{"fen", []string{"position fen " + kiwipete}, kiwipete},
		{
			"fen moves castling",
			[]string{"position fen " + kiwipete + " moves e1g1"},
			fenAfter(t, kiwipete, "e1g1"),
		},
		{
			"bad fen keeps previous position",
			[]string{"position startpos moves d2d4", "position fen not/a/fen w - - 0 1"},
			fenAfter(t, board.StartFEN, "d2d4"),
		},
		{
			"bad move truncates move list",
			[]string{"position startpos moves e2e4 e2e4 d7d5"},
			fenAfter(t, board.StartFEN, "e2e4"),
		},
		{
			"wrong side to move",
			[]string{"position startpos moves e7e5"},
			board.StartFEN,
		},
		{
			"ucinewgame resets",
			[]string{"position startpos moves e2e4", "ucinewgame"},
			board.StartFEN,
		},
		{
			"garbage ignored",
			[]string{"position", "position sideways", "frobnicate 3", "position startpos moves a2a3"},
			fenAfter(t, board.StartFEN, "a2a3"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, _ := session(t, nil, tt.script...)
			if got := fenOf(eng); got != tt.want {
				t.Errorf("position = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseGoOptions(t *testing.T) {
	tests := []struct {
		args string
		want GoOptions
	}{
		{"", GoOptions{}},
		{"depth 4", GoOptions{Depth: 4}},
		{"infinite", GoOptions{Infinite: true}},
		{"movetime 250", GoOptions{MoveTime: 250 * time.Millisecond}},
		{
			"wtime 60000 btime 30000 winc 1000 binc 500",
			GoOptions{WTime: time.Minute, BTime: 30 * time.Second, WInc: time.Second, BInc: 500 * time.Millisecond},
		},
		{"depth x wtime 100", GoOptions{WTime: 100 * time.Millisecond}},
		{"ponder depth 3 nodes 10", GoOptions{Depth: 3}},
		{"depth", GoOptions{}},
		{"depth -2", GoOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			if got := parseGoOptions(strings.Fields(tt.args)); got != tt.want {
				t.Errorf("parseGoOptions(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestLimitsUseSideToMoveClock(t *testing.T) {
	opts := GoOptions{
		Depth: 5,
		WTime: time.Minute, WInc: time.Second,
		BTime: 10 * time.Second, BInc: 100 * time.Millisecond,
	}

	white := opts.Limits(board.White)
	if white.Time != time.Minute || white.Inc != time.Second || white.Depth != 5 {
		t.Errorf("white limits = %+v", white)
	}
	black := opts.Limits(board.Black)
	if black.Time != 10*time.Second || black.Inc != 100*time.Millisecond {
		t.Errorf("black limits = %+v", black)
	}
}

func TestGoPrintsInfoAndBestMove(t *testing.T) {
	_, out := session(t, nil, "position startpos", "go depth 2")

	for _, want := range []string{"info depth 1 score cp", "info depth 2 score cp", "bestmove "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "info depth 3") {
		t.Errorf("searched past requested depth:\n%s", out)
	}
}

func TestGoFindsMate(t *testing.T) {
	_, out := session(t, nil, "position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "go depth 3")

	if !strings.Contains(out, "score mate 1") {
		t.Errorf("mate score not reported:\n%s", out)
	}
	if !strings.Contains(out, "bestmove a1a8") {
		t.Errorf("wrong best move:\n%s", out)
	}
}

func TestGoWithoutLegalMoves(t *testing.T) {
	_, out := session(t, nil, "position fen R6k/6pp/8/8/8/8/8/K7 b - - 0 1", "go depth 2")

	if !strings.Contains(out, "bestmove 0000") {
		t.Errorf("expected null best move:\n%s", out)
	}
}

func TestStopEndsInfiniteSearch(t *testing.T) {
	_, out := session(t, nil, "position startpos", "go infinite", "stop", "isready")

	if strings.Count(out, "bestmove") != 1 {
		t.Fatalf("expected exactly one bestmove:\n%s", out)
	}
	if strings.Index(out, "bestmove") > strings.Index(out, "readyok") {
		t.Errorf("stop returned before bestmove was sent:\n%s", out)
	}
}

func TestPerftCommand(t *testing.T) {
	_, out := session(t, nil, "position startpos", "perft 2")

	if !strings.Contains(out, "Nodes searched: 400") {
		t.Errorf("wrong perft total:\n%s", out)
	}
	if !strings.Contains(out, "e2e4: 20") {
		t.Errorf("divide line missing:\n%s", out)
	}
}

func TestDisplayCommand(t *testing.T) {
	_, out := session(t, nil, "position startpos", "d")
	if !strings.Contains(out, board.StartFEN) {
		t.Errorf("diagram missing FEN:\n%s", out)
	}
}

func TestJournalRecordsSearch(t *testing.T) {
	journal, err := storage.OpenInMemory(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	_, out := session(t, journal, "position startpos", "journal", "go depth 2", "isready", "journal")
	if !strings.Contains(out, "info string journal empty") {
		t.Errorf("expected empty journal before search:\n%s", out)
	}
	if !strings.Contains(out, "info string journal depth 2") {
		t.Errorf("search not journaled:\n%s", out)
	}

	rec, err := journal.Get(board.NewPosition().Hash())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.FEN != board.StartFEN || rec.Depth != 2 || rec.BestMove == "" {
		t.Errorf("record = %+v", rec)
	}

	_, out = session(t, nil, "journal")
	if !strings.Contains(out, "journal disabled") {
		t.Errorf("expected disabled journal:\n%s", out)
	}
}
