// Package perft counts move-generation leaf nodes, the standard check of a
// move generator against published reference values.
package perft

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/newton/internal/board"
)

// ErrMoveRejected reports a generated legal move that Make refused, which
// means move generation and make disagree.
var ErrMoveRejected = errors.New("perft: legal move rejected")

// DivideEntry is the leaf count below one root move.
type DivideEntry struct {
	Move  board.Move
	Nodes uint64
}

// Count returns the number of legal move sequences of length depth from pos.
// pos is restored before Count returns.
func Count(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var ml board.MoveList
	pos.GenerateMoves(&ml)

	var nodes uint64
	for _, m := range ml.Slice() {
		if !pos.Make(m) {
			continue
		}
		if depth == 1 {
			nodes++
		} else {
			nodes += Count(pos, depth-1)
		}
		pos.Unmake()
	}
	return nodes
}

// Divide counts each legal root move's subtree on its own clone of pos, using
// up to workers goroutines (GOMAXPROCS when workers <= 0). Entries come back
// sorted by move text. pos itself is not touched.
func Divide(ctx context.Context, pos *board.Position, depth, workers int) ([]DivideEntry, error) {
	if depth < 1 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	moves := pos.LegalMoves()
	entries := make([]DivideEntry, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range moves {
		child := pos.Clone()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !child.Make(m) {
				return fmt.Errorf("%w: %s", ErrMoveRejected, m)
			}
			entries[i] = DivideEntry{Move: m, Nodes: Count(child, depth-1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Move.String() < entries[j].Move.String()
	})
	return entries, nil
}

// Total sums the node counts of a divide.
func Total(entries []DivideEntry) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	return total
}
