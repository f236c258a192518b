package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hailam/newton/internal/board"
)

func mustParse(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func newEngineAt(t *testing.T, fen string) *Engine {
	t.Helper()
	eng := NewEngine(nil)
	eng.SetPosition(mustParse(t, fen))
	return eng
}

func TestSearchBasic(t *testing.T) {
	eng := NewEngine(nil)

	res := eng.Search(context.Background(), SearchLimits{Depth: 3})
	if res.BestMove == board.NoMove {
		t.Fatal("Search returned NoMove for starting position")
	}
	if res.Depth != 3 {
		t.Errorf("completed depth = %d, want 3", res.Depth)
	}
	if res.FEN != board.StartFEN {
		t.Errorf("result FEN = %q", res.FEN)
	}

	legal := false
	eng.WithPosition(func(pos *board.Position) {
		for _, m := range pos.LegalMoves() {
			if m == res.BestMove {
				legal = true
			}
		}
		if pos.FEN() != board.StartFEN || pos.Ply() != 0 {
			t.Errorf("search left position at %s ply %d", pos.FEN(), pos.Ply())
		}
	})
	if !legal {
		t.Errorf("best move %v is not legal", res.BestMove)
	}
}

func TestSearchTerminalPositions(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		score int
	}{
		{"checkmate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", -MateScore},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSearcher(nil)
			move, score := s.Search(mustParse(t, tc.fen), 1)
			if move != board.NoMove {
				t.Errorf("move = %v, want none", move)
			}
			if score != tc.score {
				t.Errorf("score = %d, want %d", score, tc.score)
			}
		})
	}
}

func TestSearchMateInOne(t *testing.T) {
	eng := newEngineAt(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")

	var depths []int
	eng.OnInfo = func(info SearchInfo) { depths = append(depths, info.Depth) }

	res := eng.Search(context.Background(), SearchLimits{Infinite: true})
	if got := res.BestMove.String(); got != "a1a8" {
		t.Errorf("best move = %s, want a1a8", got)
	}
	if res.Score != MateScore-1 {
		t.Errorf("score = %d, want %d", res.Score, MateScore-1)
	}
	if MateIn(res.Score) != 1 {
		t.Errorf("MateIn(%d) = %d, want 1", res.Score, MateIn(res.Score))
	}
	if len(depths) != 2 {
		t.Errorf("searched depths %v, want stop right after the mate is seen", depths)
	}
}

func TestSearchAvoidsStalemateWhenWinning(t *testing.T) {
	// Qg6 would stalemate; the engine should prefer mating.
	eng := newEngineAt(t, "7k/8/5K2/8/8/8/8/6Q1 w - - 0 1")
	res := eng.Search(context.Background(), SearchLimits{Depth: 3})
	if !IsMateScore(res.Score) || res.Score < 0 {
		t.Errorf("score = %d, want a winning mate score", res.Score)
	}
}

func TestSearchCapturesHangingQueen(t *testing.T) {
	eng := newEngineAt(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	res := eng.Search(context.Background(), SearchLimits{Depth: 2})
	if got := res.BestMove.String(); got != "d2d5" {
		t.Errorf("best move = %s, want d2d5", got)
	}
}

func TestStopBetweenDepths(t *testing.T) {
	eng := NewEngine(nil)
	eng.OnInfo = func(info SearchInfo) {
		if info.Depth == 2 {
			eng.Stop()
		}
	}
	res := eng.Search(context.Background(), SearchLimits{Infinite: true})
	if res.Depth != 2 {
		t.Errorf("completed depth = %d, want 2", res.Depth)
	}
	if res.BestMove == board.NoMove {
		t.Error("stopped search lost its best move")
	}

	// A later search is not affected by the earlier Stop.
	res = eng.Search(context.Background(), SearchLimits{Depth: 3})
	if res.Depth != 3 {
		t.Errorf("next search completed depth = %d, want 3", res.Depth)
	}
}

func TestContextCancelBetweenDepths(t *testing.T) {
	eng := NewEngine(nil)
	ctx, cancel := context.WithCancel(context.Background())
	eng.OnInfo = func(info SearchInfo) { cancel() }

	res := eng.Search(ctx, SearchLimits{Infinite: true})
	if res.Depth != 1 {
		t.Errorf("completed depth = %d, want 1", res.Depth)
	}
}

func TestSearchHoldsPositionLock(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	first := true
	eval := EvaluatorFunc(func(pos *board.Position) int {
		if first {
			first = false
			close(started)
			<-release
		}
		return 0
	})

	eng := NewEngine(eval)
	done := make(chan SearchResult)
	go func() {
		done <- eng.Search(context.Background(), SearchLimits{Depth: 1})
	}()
	<-started

	replaced := make(chan struct{})
	go func() {
		eng.Reset()
		close(replaced)
	}()

	select {
	case <-replaced:
		t.Fatal("position replaced while a search was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done
	select {
	case <-replaced:
	case <-time.After(5 * time.Second):
		t.Fatal("position command still blocked after search finished")
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name   string
		limits SearchLimits
		want   time.Duration
	}{
		{"clock", SearchLimits{Time: 60 * time.Second, Inc: 2 * time.Second}, 4 * time.Second},
		{"clock no increment", SearchLimits{Time: 10 * time.Second}, 500 * time.Millisecond},
		{"movetime", SearchLimits{Time: 60 * time.Second, MoveTime: time.Second}, time.Second},
		{"infinite", SearchLimits{Time: 60 * time.Second, Infinite: true}, 0},
		{"depth only", SearchLimits{Depth: 5}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Budget(tc.limits); got != tc.want {
				t.Errorf("Budget = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTimeBudgetStopsDeepening(t *testing.T) {
	eng := NewEngine(nil)
	res := eng.Search(context.Background(), SearchLimits{Time: 20 * time.Millisecond})
	if res.BestMove == board.NoMove {
		t.Fatal("no move under a tight clock")
	}
	if res.Depth >= DefaultMaxDepth {
		t.Errorf("completed depth %d despite 1ms budget", res.Depth)
	}
}

func TestMateIn(t *testing.T) {
	tests := []struct{ score, want int }{
		{MateScore - 1, 1},
		{MateScore - 3, 2},
		{-MateScore + 2, -1},
		{-MateScore + 4, -2},
	}
	for _, tc := range tests {
		if got := MateIn(tc.score); got != tc.want {
			t.Errorf("MateIn(%d) = %d, want %d", tc.score, got, tc.want)
		}
	}
	if IsMateScore(900) || !IsMateScore(-MateScore+10) {
		t.Error("IsMateScore")
	}
}

// flipFEN swaps colours and mirrors the board vertically.
func flipFEN(fen string) string {
	f := strings.Fields(fen)
	ranks := strings.Split(f[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	swap := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z':
				return r - 'a' + 'A'
			case r >= 'A' && r <= 'Z':
				return r - 'A' + 'a'
			}
			return r
		}, s)
	}
	side := "b"
	if f[1] == "b" {
		side = "w"
	}
	castling := f[2]
	if castling != "-" {
		castling = swap(castling)
	}
	return strings.Join([]string{swap(strings.Join(ranks, "/")), side, castling, "-", "0", "1"}, " ")
}

func TestEvaluateSymmetry(t *testing.T) {
	var eval DefaultEvaluator
	for _, fen := range []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1",
	} {
		a := eval.Evaluate(mustParse(t, fen))
		b := eval.Evaluate(mustParse(t, flipFEN(fen)))
		if a != b {
			t.Errorf("%s: %d, flipped %d", fen, a, b)
		}
	}
	if got := eval.Evaluate(board.NewPosition()); got != tempoBonus {
		t.Errorf("start position = %d, want %d", got, tempoBonus)
	}
}
