package engine

import (
	"github.com/hailam/newton/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return score > MateScore-MaxPly || score < -MateScore+MaxPly
}

// MateIn converts a mate score to moves until mate: positive when the side
// to move mates, negative (or zero) when it gets mated.
func MateIn(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score) / 2
}

// Searcher performs a fixed-depth negamax alpha-beta search on a shared
// position. Every move it makes is unmade before it returns.
type Searcher struct {
	eval  Evaluator
	nodes uint64
}

// NewSearcher creates a new searcher.
func NewSearcher(eval Evaluator) *Searcher {
	if eval == nil {
		eval = DefaultEvaluator{}
	}
	return &Searcher{eval: eval}
}

// Reset resets the node counter for a new search.
func (s *Searcher) Reset() {
	s.nodes = 0
}

// Nodes returns the number of nodes searched since the last Reset.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search searches pos to depth with a full window and returns the best root
// move and its score. With no legal moves it returns NoMove and the terminal
// score (mated or stalemate).
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	if depth < 1 {
		depth = 1
	}
	s.nodes++

	var ml board.MoveList
	pos.GenerateMoves(&ml)

	alpha, beta := -Infinity, Infinity
	bestMove := board.NoMove
	bestScore := -Infinity
	for _, m := range ml.Slice() {
		if !pos.Make(m) {
			continue
		}
		score := -s.negamax(pos, depth-1, 1, -beta, -alpha)
		pos.Unmake()

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
	}

	if bestMove == board.NoMove {
		return board.NoMove, terminalScore(pos, 0)
	}
	return bestMove, bestScore
}

// negamax returns the score of pos for the side to move. A beta cutoff
// returns the best score found so far without searching further moves.
func (s *Searcher) negamax(pos *board.Position, depth, ply, alpha, beta int) int {
	s.nodes++

	if depth == 0 {
		return s.eval.Evaluate(pos)
	}

	var ml board.MoveList
	pos.GenerateMoves(&ml)

	bestScore := -Infinity
	legal := 0
	for _, m := range ml.Slice() {
		if !pos.Make(m) {
			continue
		}
		legal++
		score := -s.negamax(pos, depth-1, ply+1, -beta, -alpha)
		pos.Unmake()

		if score > bestScore {
			bestScore = score
		}
		if score > alpha {
			alpha = score
		}
		if score >= beta {
			return bestScore
		}
	}

	if legal == 0 {
		return terminalScore(pos, ply)
	}
	return bestScore
}

// terminalScore scores a position without legal moves: mated (closer mates
// score lower for the loser) or stalemate.
func terminalScore(pos *board.Position, ply int) int {
	if pos.InCheck() {
		return -MateScore + ply
	}
	return 0
}
