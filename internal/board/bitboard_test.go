package board

import "testing"

func TestShiftsDoNotWrap(t *testing.T) {
	tests := []struct {
		name  string
		shift func(Bitboard) Bitboard
		from  Square
		want  Bitboard
	}{
		{"east off h-file", Bitboard.East, H4, Empty},
		{"west off a-file", Bitboard.West, A5, Empty},
		{"east", Bitboard.East, D4, SquareBB(E4)},
		{"west", Bitboard.West, D4, SquareBB(C4)},
		{"north off rank 8", Bitboard.North, E8, Empty},
		{"south off rank 1", Bitboard.South, E1, Empty},
		{"north-east off h-file", Bitboard.NorthEast, H3, Empty},
		{"south-west off a-file", Bitboard.SouthWest, A6, Empty},
		{"north-west", Bitboard.NorthWest, B2, SquareBB(A3)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.shift(SquareBB(tc.from)); got != tc.want {
				t.Errorf("got\n%v\nwant\n%v", got, tc.want)
			}
		})
	}

	if got := FileH.East(); got != Empty {
		t.Errorf("FileH.East() = %#x, want empty", uint64(got))
	}
	if got := FileA.West(); got != Empty {
		t.Errorf("FileA.West() = %#x, want empty", uint64(got))
	}
}

func TestSetAlgebra(t *testing.T) {
	a := SquareBB(A1) | SquareBB(B1)
	b := SquareBB(B1) | SquareBB(C1)

	if got := a.Union(b); got != SquareBB(A1)|SquareBB(B1)|SquareBB(C1) {
		t.Errorf("Union = %#x", uint64(got))
	}
	if got := a.Intersect(b); got != SquareBB(B1) {
		t.Errorf("Intersect = %#x", uint64(got))
	}
	if got := a.Xor(b); got != SquareBB(A1)|SquareBB(C1) {
		t.Errorf("Xor = %#x", uint64(got))
	}
	if got := a.Complement().PopCount(); got != 62 {
		t.Errorf("Complement has %d squares, want 62", got)
	}
	if !a.Set(H8).IsSet(H8) || a.Clear(A1).IsSet(A1) {
		t.Error("Set/Clear")
	}
}

func TestPopLSB(t *testing.T) {
	bb := SquareBB(C3) | SquareBB(A1) | SquareBB(H8)
	var got []Square
	for bb != 0 {
		got = append(got, bb.PopLSB())
	}
	want := []Square{A1, C3, H8}
	if len(got) != len(want) {
		t.Fatalf("PopLSB order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PopLSB order = %v, want %v", got, want)
		}
	}
	if Empty.LSB() != NoSquare {
		t.Error("LSB of empty set is not NoSquare")
	}
}

func TestLeaperAttacks(t *testing.T) {
	tests := []struct {
		name string
		got  Bitboard
		n    int
	}{
		{"knight a1", KnightAttacks(A1), 2},
		{"knight h8", KnightAttacks(H8), 2},
		{"knight d4", KnightAttacks(D4), 8},
		{"knight h4", KnightAttacks(H4), 4},
		{"king a1", KingAttacks(A1), 3},
		{"king h5", KingAttacks(H5), 5},
		{"king e4", KingAttacks(E4), 8},
		{"white pawn a2", PawnAttacks(A2, White), 1},
		{"white pawn h2", PawnAttacks(H2, White), 1},
		{"black pawn e7", PawnAttacks(E7, Black), 2},
	}
	for _, tc := range tests {
		if got := tc.got.PopCount(); got != tc.n {
			t.Errorf("%s: %d squares, want %d\n%v", tc.name, got, tc.n, tc.got)
		}
	}
	if KnightAttacks(H4)&FileA != 0 || KingAttacks(H5)&FileA != 0 {
		t.Error("h-file leaper wraps onto the a-file")
	}
	if PawnAttacks(H2, White) != SquareBB(G3) {
		t.Errorf("white pawn h2 attacks\n%v", PawnAttacks(H2, White))
	}
}

func TestSquare(t *testing.T) {
	for _, s := range []string{"a1", "h1", "e4", "a8", "h8"} {
		sq, err := ParseSquare(s)
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", s, err)
		}
		if sq.String() != s {
			t.Errorf("ParseSquare(%q).String() = %q", s, sq.String())
		}
	}
	for _, s := range []string{"", "a", "a9", "i1", "e44"} {
		if _, err := ParseSquare(s); err == nil {
			t.Errorf("ParseSquare(%q) succeeded", s)
		}
	}
	if E2.Mirror() != E7 {
		t.Errorf("E2.Mirror() = %v, want e7", E2.Mirror())
	}
}
