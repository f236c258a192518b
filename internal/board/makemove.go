package board

// castlingLoss lists the rights lost when a piece leaves or is captured on a
// square. A king or rook moving off its original square, or a rook captured
// there, gives up the matching rights.
var castlingLoss [64]CastlingRights

func init() {
	castlingLoss[A1] = WhiteQueenSideCastle
	castlingLoss[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	castlingLoss[H1] = WhiteKingSideCastle
	castlingLoss[A8] = BlackQueenSideCastle
	castlingLoss[E8] = BlackKingSideCastle | BlackQueenSideCastle
	castlingLoss[H8] = BlackKingSideCastle
}

// castlingRook returns the rook's squares for a castling move whose king lands
// on kingTo.
func castlingRook(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	case C8:
		return A8, D8
	}
	panic("board: castling king destination " + kingTo.String())
}

// enPassantVictim returns the square of the pawn taken by an en passant
// capture landing on to: one rank behind to, seen from the capturer.
func enPassantVictim(to Square, us Color) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// Make applies m for the side to move and reports whether it was legal. An
// illegal move (one that leaves the mover's king attacked) is taken back
// before returning, so on false the position is exactly as it was and the
// caller must not call Unmake.
func (p *Position) Make(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	pt := m.Piece()
	from, to := m.From(), m.To()
	captured := m.Captured()

	p.history = append(p.history, Undo{
		Move:           m,
		Captured:       captured,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
	})

	if m.IsEnPassant() {
		p.remove(them, Pawn, enPassantVictim(to, us))
	} else if captured != NoPieceType {
		p.remove(them, captured, to)
	}

	if promo := m.Promotion(); promo != NoPieceType {
		p.remove(us, Pawn, from)
		p.put(us, promo, to)
	} else {
		p.shift(us, pt, from, to)
	}

	if m.IsCastling() {
		rookFrom, rookTo := castlingRook(to)
		p.shift(us, Rook, rookFrom, rookTo)
	}

	p.CastlingRights &^= castlingLoss[from] | castlingLoss[to]

	p.EnPassant = NoSquare
	if m.IsDoublePush() {
		p.EnPassant = (from + to) / 2
	}

	if pt == Pawn || captured != NoPieceType {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them

	if ksq := p.KingSquare(us); ksq != NoSquare && p.IsSquareAttacked(ksq, them) {
		p.Unmake()
		return false
	}
	return true
}

// Unmake takes back the last move applied by Make. It panics when there is
// nothing to take back.
func (p *Position) Unmake() {
	n := len(p.history)
	if n == 0 {
		panic("board: Unmake with empty history")
	}
	u := p.history[n-1]
	p.history = p.history[:n-1]

	m := u.Move
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsCastling() {
		rookFrom, rookTo := castlingRook(to)
		p.shift(us, Rook, rookTo, rookFrom)
	}

	if promo := m.Promotion(); promo != NoPieceType {
		p.remove(us, promo, to)
		p.put(us, Pawn, from)
	} else {
		p.shift(us, m.Piece(), to, from)
	}

	if m.IsEnPassant() {
		p.put(them, Pawn, enPassantVictim(to, us))
	} else if u.Captured != NoPieceType {
		p.put(them, u.Captured, to)
	}

	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
}
