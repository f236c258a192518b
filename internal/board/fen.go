package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN wraps every ParseFEN failure.
var ErrInvalidFEN = errors.New("invalid FEN")

func fenError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidFEN, fmt.Sprintf(format, args...))
}

// ParseFEN parses a FEN string and returns a Position. The half-move clock
// and full-move number are optional and default to 0 and 1.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return nil, fenError("want 4 to 6 fields, got %d", len(fields))
	}

	pos := &Position{}
	pos.Clear()

	if err := pos.setPlacement(fields[0]); err != nil {
		return nil, err
	}
	if err := pos.setSideToMove(fields[1]); err != nil {
		return nil, err
	}
	if err := pos.setCastling(fields[2]); err != nil {
		return nil, err
	}
	if err := pos.setEnPassant(fields[3]); err != nil {
		return nil, err
	}

	hmc, fmn := 0, 1
	var err error
	if len(fields) > 4 {
		if hmc, err = strconv.Atoi(fields[4]); err != nil || hmc < 0 {
			return nil, fenError("half-move clock %q", fields[4])
		}
	}
	if len(fields) > 5 {
		if fmn, err = strconv.Atoi(fields[5]); err != nil || fmn < 1 {
			return nil, fenError("full-move number %q", fields[5])
		}
	}
	pos.HalfMoveClock, pos.FullMoveNumber = hmc, fmn

	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}
	if (pos.Pieces[White][Pawn]|pos.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return nil, fenError("pawn on a back rank")
	}
	if pos.IsSquareAttacked(pos.KingSquare(pos.SideToMove.Other()), pos.SideToMove) {
		return nil, fenError("side not to move is in check")
	}
	return pos, nil
}

// setPlacement fills the board from the first FEN field, rank 8 first.
func (p *Position) setPlacement(field string) error {
	rows := strings.Split(field, "/")
	if len(rows) != 8 {
		return fenError("placement has %d ranks", len(rows))
	}

	for i, row := range rows {
		rank := 7 - i
		file := 0
		for _, ch := range []byte(row) {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pt, c, ok := pieceTypeFromChar(ch)
			if !ok {
				return fenError("piece %q", ch)
			}
			if file > 7 {
				return fenError("rank %d overflows", rank+1)
			}
			p.put(c, pt, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fenError("rank %d has %d squares", rank+1, file)
		}
	}
	return nil
}

func (p *Position) setSideToMove(field string) error {
	switch field {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return fenError("side to move %q", field)
	}
	return nil
}

var castlingChars = map[rune]CastlingRights{
	'K': WhiteKingSideCastle,
	'Q': WhiteQueenSideCastle,
	'k': BlackKingSideCastle,
	'q': BlackQueenSideCastle,
}

func (p *Position) setCastling(field string) error {
	p.CastlingRights = NoCastling
	if field == "-" {
		return nil
	}
	for _, ch := range field {
		right, ok := castlingChars[ch]
		if !ok {
			return fenError("castling %q", field)
		}
		p.CastlingRights |= right
	}
	return nil
}

// setEnPassant accepts a target only if it can follow a double push by the
// side that just moved: sixth rank with white to move (third with black),
// that side's pawn directly beyond it, and the target and the pawn's start
// square empty. Placement and side to move must already be set.
func (p *Position) setEnPassant(field string) error {
	if field == "-" {
		p.EnPassant = NoSquare
		return nil
	}
	sq, err := ParseSquare(field)
	if err != nil {
		return fenError("en passant square %q", field)
	}

	them := p.SideToMove.Other()
	rank, victim, start := 5, sq-8, sq+8
	if p.SideToMove == Black {
		rank, victim, start = 2, sq+8, sq-8
	}
	if sq.Rank() != rank {
		return fenError("en passant square %q with %s to move", field, p.SideToMove)
	}
	if !p.Pieces[them][Pawn].IsSet(victim) || !p.IsEmpty(sq) || !p.IsEmpty(start) {
		return fenError("en passant square %q without a double push", field)
	}
	p.EnPassant = sq
	return nil
}

// FEN returns the FEN representation of the position.
func (p *Position) FEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		gap := 0
		for file := 0; file < 8; file++ {
			pt, c, ok := p.PieceAt(NewSquare(file, rank))
			if !ok {
				gap++
				continue
			}
			if gap > 0 {
				sb.WriteByte(byte('0' + gap))
				gap = 0
			}
			sb.WriteByte(pieceChar(pt, c))
		}
		if gap > 0 {
			sb.WriteByte(byte('0' + gap))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	fmt.Fprintf(&sb, " %s %s %s %d %d",
		p.SideToMove.fenChar(), p.CastlingRights, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
	return sb.String()
}
