package board

// GenerateMoves appends every pseudo-legal move for the side to move to ml.
// Moves come out grouped by piece type in a fixed order (pawns, knights,
// bishops, rooks, queens, king, castling). Whether a move leaves the king in
// check is left to Make.
func (p *Position) GenerateMoves(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	targets := ^p.Occupied[us]

	p.generatePawnMoves(ml, us)

	for pt := Knight; pt <= King; pt++ {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			var attacks Bitboard
			switch pt {
			case Knight:
				attacks = KnightAttacks(from)
			case Bishop:
				attacks = BishopAttacks(from, occupied)
			case Rook:
				attacks = RookAttacks(from, occupied)
			case Queen:
				attacks = QueenAttacks(from, occupied)
			case King:
				attacks = KingAttacks(from)
			}
			p.addMoves(ml, pt, from, attacks&targets)
		}
	}

	p.generateCastlingMoves(ml, us)
}

// addMoves adds one move per destination, reading captures off the mailbox.
func (p *Position) addMoves(ml *MoveList, pt PieceType, from Square, dests Bitboard) {
	for dests != 0 {
		to := dests.PopLSB()
		ml.Add(NewMove(pt, from, to, p.Mailbox[to], NoPieceType, 0))
	}
}

// generatePawnMoves generates all pawn moves.
func (p *Position) generatePawnMoves(ml *MoveList, us Color) {
	pawns := p.Pieces[us][Pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied

	var push1, push2, promotionRank Bitboard
	var pushDir int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		promotionRank = Rank1
		pushDir = -8
	}

	for push1 != 0 {
		to := push1.PopLSB()
		from := Square(int(to) - pushDir)
		if promotionRank.IsSet(to) {
			addPromotions(ml, from, to, NoPieceType)
		} else {
			ml.Add(NewMove(Pawn, from, to, NoPieceType, NoPieceType, 0))
		}
	}

	for push2 != 0 {
		to := push2.PopLSB()
		from := Square(int(to) - 2*pushDir)
		ml.Add(NewMove(Pawn, from, to, NoPieceType, NoPieceType, FlagDoublePush))
	}

	attackers := pawns
	for attackers != 0 {
		from := attackers.PopLSB()
		attacks := PawnAttacks(from, us)
		captures := attacks & enemies
		for captures != 0 {
			to := captures.PopLSB()
			if promotionRank.IsSet(to) {
				addPromotions(ml, from, to, p.Mailbox[to])
			} else {
				ml.Add(NewMove(Pawn, from, to, p.Mailbox[to], NoPieceType, 0))
			}
		}
		if p.EnPassant != NoSquare && attacks.IsSet(p.EnPassant) {
			ml.Add(NewMove(Pawn, from, p.EnPassant, Pawn, NoPieceType, FlagEnPassant))
		}
	}
}

// addPromotions adds the four promotion choices, queen first.
func addPromotions(ml *MoveList, from, to Square, captured PieceType) {
	for _, promo := range [...]PieceType{Queen, Rook, Bishop, Knight} {
		ml.Add(NewMove(Pawn, from, to, captured, promo, 0))
	}
}

type castlingPath struct {
	side   Color
	right  CastlingRights
	king   Square
	kingTo Square
	rook   Square
	empty  Bitboard  // squares strictly between king and rook
	safe   [3]Square // king start, transit, destination
	flag   Move
}

var castlingPaths = [...]castlingPath{
	{White, WhiteKingSideCastle, E1, G1, H1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}, FlagKingCastle},
	{White, WhiteQueenSideCastle, E1, C1, A1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}, FlagQueenCastle},
	{Black, BlackKingSideCastle, E8, G8, H8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}, FlagKingCastle},
	{Black, BlackQueenSideCastle, E8, C8, A8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}, FlagQueenCastle},
}

// generateCastlingMoves adds castling when the right is held, king and rook
// stand on their original squares, the squares between them are empty and
// none of the king's start, transit or destination squares is attacked.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	for i := range castlingPaths {
		cp := &castlingPaths[i]
		if cp.side != us || p.CastlingRights&cp.right == 0 {
			continue
		}
		if !p.Pieces[us][King].IsSet(cp.king) || !p.Pieces[us][Rook].IsSet(cp.rook) {
			continue
		}
		if p.AllOccupied&cp.empty != 0 {
			continue
		}
		if p.IsSquareAttacked(cp.safe[0], them) ||
			p.IsSquareAttacked(cp.safe[1], them) ||
			p.IsSquareAttacked(cp.safe[2], them) {
			continue
		}
		ml.Add(NewMove(King, cp.king, cp.kingTo, NoPieceType, NoPieceType, cp.flag))
	}
}

// LegalMoves returns the moves that Make accepts, in generation order.
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateMoves(&ml)
	legal := make([]Move, 0, ml.Len())
	for _, m := range ml.Slice() {
		if p.Make(m) {
			p.Unmake()
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMoves returns true if the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateMoves(&ml)
	for _, m := range ml.Slice() {
		if p.Make(m) {
			p.Unmake()
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}
