package board

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing side.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) fenChar() string {
	if c == White {
		return "w"
	}
	return "b"
}

// PieceType is a kind of piece without colour.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

var pieceTypeChars = [...]byte{'p', 'n', 'b', 'r', 'q', 'k', '.'}

// Char returns the lowercase FEN letter of the piece type, '.' for none.
func (pt PieceType) Char() byte {
	if pt > NoPieceType {
		return '?'
	}
	return pieceTypeChars[pt]
}

func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// pieceTypeFromChar maps a FEN letter of either case to colour and type.
func pieceTypeFromChar(c byte) (PieceType, Color, bool) {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	switch c {
	case 'P':
		return Pawn, color, true
	case 'N':
		return Knight, color, true
	case 'B':
		return Bishop, color, true
	case 'R':
		return Rook, color, true
	case 'Q':
		return Queen, color, true
	case 'K':
		return King, color, true
	}
	return NoPieceType, color, false
}

// pieceChar returns the FEN letter for a coloured piece.
func pieceChar(pt PieceType, c Color) byte {
	ch := pt.Char()
	if c == White {
		ch -= 'a' - 'A'
	}
	return ch
}
