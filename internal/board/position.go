package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	if cr&WhiteKingSideCastle != 0 {
		sb.WriteByte('K')
	}
	if cr&WhiteQueenSideCastle != 0 {
		sb.WriteByte('Q')
	}
	if cr&BlackKingSideCastle != 0 {
		sb.WriteByte('k')
	}
	if cr&BlackQueenSideCastle != 0 {
		sb.WriteByte('q')
	}
	return sb.String()
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// Undo is one entry of the history stack: the move applied and the state it
// overwrote. Together with the move it is enough to invert one Make.
type Undo struct {
	Move           Move
	Captured       PieceType
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
}

// Position is the mutable board state. It is changed only through Make and
// Unmake, and the search shares a single instance across the whole tree.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	// Occupancy aggregates, kept in step with Pieces
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	// Piece type per square, NoPieceType when empty
	Mailbox [64]PieceType

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Square passed over by the last double push, NoSquare otherwise
	HalfMoveClock  int
	FullMoveNumber int

	history []Undo
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Clone returns an independent copy of the position, history included.
func (p *Position) Clone() *Position {
	c := *p
	c.history = make([]Undo, len(p.history), cap(p.history))
	copy(c.history, p.history)
	return &c
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		history:        p.history[:0],
	}
	for sq := range p.Mailbox {
		p.Mailbox[sq] = NoPieceType
	}
}

// Ply returns the number of applied moves not yet undone.
func (p *Position) Ply() int {
	return len(p.history)
}

// LastMove returns the most recently applied move, or NoMove.
func (p *Position) LastMove() Move {
	if len(p.history) == 0 {
		return NoMove
	}
	return p.history[len(p.history)-1].Move
}

// PieceAt returns the piece type and colour on sq. ok is false for an empty
// square.
func (p *Position) PieceAt(sq Square) (pt PieceType, c Color, ok bool) {
	pt = p.Mailbox[sq]
	if pt == NoPieceType {
		return NoPieceType, White, false
	}
	if p.Occupied[Black].IsSet(sq) {
		c = Black
	}
	return pt, c, true
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Mailbox[sq] == NoPieceType
}

// put places a piece on an empty square.
func (p *Position) put(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Mailbox[sq] = pt
}

// remove takes a piece off its square.
func (p *Position) remove(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.Mailbox[sq] = NoPieceType
}

// shift moves a piece to an empty square.
func (p *Position) shift(c Color, pt PieceType, from, to Square) {
	moveBB := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= moveBB
	p.Occupied[c] ^= moveBB
	p.AllOccupied ^= moveBB
	p.Mailbox[from] = NoPieceType
	p.Mailbox[to] = pt
}

// Validate checks that bitboards, occupancy and mailbox agree and that each
// side has exactly one king.
func (p *Position) Validate() error {
	var occ [2]Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			if occ[c]&p.Pieces[c][pt] != 0 {
				return fmt.Errorf("%v %v overlaps another piece", c, pt)
			}
			occ[c] |= p.Pieces[c][pt]
		}
		if occ[c] != p.Occupied[c] {
			return fmt.Errorf("%v occupancy out of step with pieces", c)
		}
	}
	if occ[White]&occ[Black] != 0 {
		return fmt.Errorf("side occupancies overlap")
	}
	if p.AllOccupied != occ[White]|occ[Black] {
		return fmt.Errorf("total occupancy out of step with sides")
	}
	for sq := A1; sq <= H8; sq++ {
		pt := p.Mailbox[sq]
		if pt == NoPieceType {
			if p.AllOccupied.IsSet(sq) {
				return fmt.Errorf("mailbox empty at occupied %v", sq)
			}
			continue
		}
		if pt > King {
			return fmt.Errorf("mailbox holds bad piece type %d at %v", pt, sq)
		}
		c := White
		if occ[Black].IsSet(sq) {
			c = Black
		}
		if !p.Pieces[c][pt].IsSet(sq) {
			return fmt.Errorf("mailbox has %v at %v but bitboards do not", pt, sq)
		}
	}
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%v has %d kings", c, n)
		}
	}
	return nil
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			pt, c, ok := p.PieceAt(NewSquare(file, rank))
			if !ok {
				sb.WriteString(". ")
				continue
			}
			sb.WriteByte(pieceChar(pt, c))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\n", p.FEN())
	fmt.Fprintf(&sb, "Key: %016X\n", p.Hash())
	return sb.String()
}
