package board

import (
	"errors"
	"fmt"
)

// Move packs a move into 32 bits:
//
//	bits 0-2:   moving piece type
//	bits 3-8:   from square
//	bits 9-14:  to square
//	bits 15-17: captured piece type (NoPieceType if none)
//	bits 18-20: promotion piece type (NoPieceType if none)
//	bits 21-24: flags
//
// A Move is only meaningful against the position it was generated for.
type Move uint32

const (
	moveFromShift    = 3
	moveToShift      = 9
	moveCaptureShift = 15
	movePromoShift   = 18
	moveFlagShift    = 21
)

// Move flags
const (
	FlagDoublePush Move = 1 << (moveFlagShift + iota)
	FlagEnPassant
	FlagKingCastle
	FlagQueenCastle
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

var (
	ErrNoPiece     = errors.New("no piece on source square")
	ErrWrongSide   = errors.New("piece does not belong to side to move")
	ErrInvalidMove = errors.New("move is not playable in this position")
	ErrIllegalMove = errors.New("move leaves king in check")
)

// NewMove builds a move. Use NoPieceType for captured and promo when they do
// not apply.
func NewMove(pt PieceType, from, to Square, captured, promo PieceType, flags Move) Move {
	return Move(pt) |
		Move(from)<<moveFromShift |
		Move(to)<<moveToShift |
		Move(captured)<<moveCaptureShift |
		Move(promo)<<movePromoShift |
		flags
}

// Piece returns the type of the moving piece.
func (m Move) Piece() PieceType {
	return PieceType(m & 7)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square((m >> moveFromShift) & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> moveToShift) & 0x3F)
}

// Captured returns the captured piece type, NoPieceType for quiet moves.
func (m Move) Captured() PieceType {
	return PieceType((m >> moveCaptureShift) & 7)
}

// Promotion returns the promotion piece type, NoPieceType if none.
func (m Move) Promotion() PieceType {
	return PieceType((m >> movePromoShift) & 7)
}

func (m Move) IsCapture() bool     { return m.Captured() != NoPieceType }
func (m Move) IsPromotion() bool   { return m.Promotion() != NoPieceType }
func (m Move) IsDoublePush() bool  { return m&FlagDoublePush != 0 }
func (m Move) IsEnPassant() bool   { return m&FlagEnPassant != 0 }
func (m Move) IsCastling() bool    { return m&(FlagKingCastle|FlagQueenCastle) != 0 }
func (m Move) IsKingCastle() bool  { return m&FlagKingCastle != 0 }
func (m Move) IsQueenCastle() bool { return m&FlagQueenCastle != 0 }

// String returns the coordinate form of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// ParseMove decodes a move in coordinate form against pos. The moving piece
// comes from the mailbox; the captured piece from the destination square (or
// the pawn behind it for en passant). The result must match one of the
// generated moves, so a returned move is always safe to hand to Make. Whether
// it leaves the king in check is still up to Make.
func ParseMove(pos *Position, s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	pt, c, ok := pos.PieceAt(from)
	if !ok {
		return NoMove, fmt.Errorf("%w: %s", ErrNoPiece, from)
	}
	if c != pos.SideToMove {
		return NoMove, fmt.Errorf("%w: %s", ErrWrongSide, from)
	}

	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = Queen
		case 'r':
			promo = Rook
		case 'b':
			promo = Bishop
		case 'n':
			promo = Knight
		default:
			return NoMove, fmt.Errorf("%w: bad promotion %q", ErrInvalidMove, s[4])
		}
	}

	captured := NoPieceType
	if tpt, tc, occupied := pos.PieceAt(to); occupied && tc != c {
		captured = tpt
	}

	var flags Move
	switch {
	case pt == Pawn && to == pos.EnPassant && from.File() != to.File():
		flags = FlagEnPassant
		captured = Pawn
	case pt == Pawn && (int(to)-int(from) == 16 || int(from)-int(to) == 16):
		flags = FlagDoublePush
	case pt == King && int(to)-int(from) == 2:
		flags = FlagKingCastle
	case pt == King && int(from)-int(to) == 2:
		flags = FlagQueenCastle
	}

	m := NewMove(pt, from, to, captured, promo, flags)
	var ml MoveList
	pos.GenerateMoves(&ml)
	if !ml.Contains(m) {
		return NoMove, fmt.Errorf("%w: %s", ErrInvalidMove, s)
	}
	return m, nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
