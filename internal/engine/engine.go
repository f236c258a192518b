package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hailam/newton/internal/board"
	"github.com/hailam/newton/internal/perft"
)

// DefaultMaxDepth is the depth limit used when a search gives none.
const DefaultMaxDepth = 64

// SearchInfo describes one completed iterative-deepening depth.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	BestMove board.Move
}

// SearchResult is the outcome of a whole search.
type SearchResult struct {
	FEN      string // position searched
	Hash     uint64 // Zobrist key of the position searched
	BestMove board.Move
	Score    int
	Depth    int // deepest completed depth
	Nodes    uint64
	Time     time.Duration
}

// Engine owns the game position. Every operation on the position takes the
// engine lock; a search holds it from start to finish, so commands that need
// the position wait for the running search to return.
type Engine struct {
	mu       sync.Mutex
	pos      *board.Position
	searcher *Searcher
	timeMgr  *TimeManager
	maxDepth int

	// stopGen is bumped by Stop; a search compares it between depths with
	// the value it saw on entry.
	stopGen atomic.Uint64

	// OnInfo is called after every completed depth, with the lock held.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine on the starting position. A nil evaluator
// selects DefaultEvaluator.
func NewEngine(eval Evaluator) *Engine {
	return &Engine{
		pos:      board.NewPosition(),
		searcher: NewSearcher(eval),
		timeMgr:  NewTimeManager(),
		maxDepth: DefaultMaxDepth,
	}
}

// SetMaxDepth sets the depth used when SearchLimits.Depth is 0.
func (e *Engine) SetMaxDepth(depth int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if depth < 1 {
		depth = DefaultMaxDepth
	}
	if depth > MaxPly {
		depth = MaxPly
	}
	e.maxDepth = depth
}

// Reset replaces the position with the starting position.
func (e *Engine) Reset() {
	e.SetPosition(board.NewPosition())
}

// SetPosition replaces the position. The engine takes ownership of pos.
func (e *Engine) SetPosition(pos *board.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = pos
}

// WithPosition runs fn with exclusive access to the position. fn must leave
// it in a consistent state and must not keep the pointer.
func (e *Engine) WithPosition(fn func(pos *board.Position)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.pos)
}

// Stop asks searches that have already been started to finish after their
// current depth. It does not interrupt a depth in progress.
func (e *Engine) Stop() {
	e.stopGen.Add(1)
}

// Search runs iterative deepening on the engine's position. Depths 1, 2, ...
// run to completion; before each new depth the search ends if the time budget
// is spent, ctx is done, Stop was called, or a forced mate has been found.
func (e *Engine) Search(ctx context.Context, limits SearchLimits) SearchResult {
	gen := e.stopGen.Load()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.searcher.Reset()
	e.timeMgr.Init(limits)

	maxDepth := e.maxDepth
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly)
	}

	result := SearchResult{FEN: e.pos.FEN(), Hash: e.pos.Hash()}
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && e.shouldStop(ctx, gen) {
			break
		}

		move, score := e.searcher.Search(e.pos, depth)
		result.BestMove = move
		result.Score = score
		result.Depth = depth
		result.Nodes = e.searcher.Nodes()
		result.Time = e.timeMgr.Elapsed()

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    result.Nodes,
				Time:     result.Time,
				BestMove: move,
			})
		}

		// No legal moves, or a forced mate a deeper search cannot improve.
		if move == board.NoMove || IsMateScore(score) {
			break
		}
	}
	return result
}

func (e *Engine) shouldStop(ctx context.Context, gen uint64) bool {
	return ctx.Err() != nil || e.stopGen.Load() != gen || e.timeMgr.Exceeded()
}

// Perft counts leaf nodes to depth from the engine's position.
func (e *Engine) Perft(ctx context.Context, depth, workers int) ([]perft.DivideEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return perft.Divide(ctx, e.pos, depth, workers)
}

// Evaluate returns the static evaluation of the engine's position.
func (e *Engine) Evaluate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searcher.eval.Evaluate(e.pos)
}
