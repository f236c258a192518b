package board

import "fmt"

// Magic bitboards for sliding piece attacks.
//
// For every square the relevant occupancy (the squares that can block a ray,
// board edge excluded) is hashed into a per-square slot of a shared table:
//
//	index = ((occupied & Mask) * Magic) >> Shift
//
// The multipliers below come from an offline run of cmd/newton-magics. They
// are not trusted: every square is verified against all subsets of its mask
// when the tables are built, and a square that fails gets a replacement from
// the same deterministic search the tool uses.

// Magic holds the lookup parameters for a single square.
type Magic struct {
	Mask   Bitboard // Relevant occupancy mask (edges excluded)
	Magic  uint64   // Multiplier
	Shift  uint8    // 64 - popcount(Mask)
	Offset uint32   // Start of this square's slot in the attack table
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

var (
	rookDirections   = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

var rookMagicNumbers = [64]uint64{
	0x2280008130400221, 0x0140006000100041, 0x4100140841002000, 0x0100041000200900,
	0x0a80024800040080, 0x09000803004e0400, 0x0400008201043018, 0xc200082040920104,
	0x0204800080400628, 0x4200402000401000, 0x0812002200104080, 0x0101000820100101,
	0x00c0800800800400, 0x0882001002010408, 0x0002000408018200, 0x4401002042008100,
	0x2018208000400880, 0x8040048040802000, 0x20b0002000280402, 0xc450008080080010,
	0x2210850010080100, 0x0000808004000200, 0x8088040018624130, 0x0300020028804904,
	0x0800400580008020, 0x0500200040100040, 0x0410200080801000, 0x050021010010000c,
	0x1002002200081004, 0x0000040080800200, 0x0002002200080441, 0x6134803080004100,
	0x0080002000400040, 0x0030201008400044, 0x20308a1000802000, 0x0460800800801002,
	0x0028010025000850, 0xaa8200140e008810, 0x0001000421008200, 0x0000800141800300,
	0x1000802040008010, 0x40c0100800242000, 0x0410080024002000, 0x0808100100090020,
	0x0000080004008080, 0x0004000402008080, 0x0050020110040008, 0x000e808041220014,
	0x2c091442a0800100, 0x4004482208810600, 0x0310200010008080, 0x0030010020081100,
	0x4000110004080100, 0x0002000280040080, 0x00c2000801040200, 0x0800800100006080,
	0x1000104081082202, 0xc001088020124202, 0x10200a0022118042, 0x0900042100100009,
	0x4c21000800100205, 0x0001000802040001, 0x0832000400c82102, 0x1200104881040822,
}

var bishopMagicNumbers = [64]uint64{
	0x0022200802890048, 0x0491240110420000, 0x2016041112000010, 0x0020a10040214104,
	0x8084042085000001, 0x00012820900000a0, 0x200088c820300004, 0xb002004400841010,
	0x0010400862040040, 0x0002048804ad0208, 0x0001098803010100, 0x2000444400840000,
	0x4000020210000000, 0x0a00060924a00082, 0x10000410a2282000, 0x8800010121012019,
	0x0041240802040402, 0x0420888401020229, 0x0081005004002442, 0x441800040c20a81a,
	0x0001000820080422, 0x0806204202100240, 0x010040510108204a, 0x0420800214440200,
	0x0020047020840404, 0x0104202004014408, 0x00003000020c01c0, 0x001c004044010042,
	0x2001001011004000, 0xc004024018080a08, 0x2041012214008800, 0x0000420001090110,
	0x040c20200028c200, 0x0101040302202810, 0x0001140a03040804, 0x0200020080080080,
	0x0242080410060200, 0x0004102080024800, 0x0110850040630428, 0x2548204040508202,
	0x0214100446241000, 0x0013080804023240, 0x10000c0044008800, 0x800106020421ba00,
	0x4800181010400c00, 0x0040082104084040, 0x01040102420a0400, 0x0410821e00280040,
	0x0414040109080000, 0x0104840402020019, 0x0000020442480000, 0x0000202442020080,
	0xc00c412020411000, 0x1000418408208300, 0x8009a21444040000, 0x0420011131090800,
	0x0002042402480400, 0x4040620114029200, 0x8300400144044405, 0x0402910280208800,
	0x00008808e0024400, 0x0003900810100088, 0x0250210204284280, 0x0028820c18020010,
}

func initMagics() {
	buildMagicTable(Bishop, bishopMagics[:], bishopTable[:], bishopMagicNumbers[:])
	buildMagicTable(Rook, rookMagics[:], rookTable[:], rookMagicNumbers[:])
}

// buildMagicTable fills magics and table for one slider. It panics if the
// table cannot be made collision-free, which would be a programming error.
func buildMagicTable(pt PieceType, magics []Magic, table []Bitboard, numbers []uint64) {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		occ, ref := occupancySubsets(sq, pt)
		mask := relevantMask(sq, pt)
		shift := uint8(64 - mask.PopCount())

		magic := numbers[sq]
		if !magicFits(mask, shift, magic, occ, ref) {
			magic = searchMagic(sq, pt, mask, shift, occ, ref, uint64(sq)+1)
		}

		m := Magic{Mask: mask, Magic: magic, Shift: shift, Offset: offset}
		size := uint32(1) << (64 - shift)
		if int(offset+size) > len(table) {
			panic(fmt.Sprintf("board: %v magic table overflow at %v", pt, sq))
		}
		for i := range occ {
			table[offset+uint32(m.index(occ[i]))] = ref[i]
		}
		magics[sq] = m
		offset += size
	}
}

func (m *Magic) index(occupied Bitboard) uint64 {
	return (uint64(occupied&m.Mask) * m.Magic) >> m.Shift
}

func directionsFor(pt PieceType) [4][2]int {
	if pt == Rook {
		return rookDirections
	}
	return bishopDirections
}

// slidingAttacks ray-casts from sq in each direction, stopping at and
// including the first occupied square.
func slidingAttacks(sq Square, occupied Bitboard, dirs [4][2]int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		for onBoard(f, r) {
			bb := SquareBB(NewSquare(f, r))
			attacks |= bb
			if occupied&bb != 0 {
				break
			}
			f, r = f+d[0], r+d[1]
		}
	}
	return attacks
}

// relevantMask returns the squares whose occupancy can change the slider's
// attack set: each ray without its final square at the board edge.
func relevantMask(sq Square, pt PieceType) Bitboard {
	var mask Bitboard
	for _, d := range directionsFor(pt) {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		for onBoard(f+d[0], r+d[1]) {
			mask |= SquareBB(NewSquare(f, r))
			f, r = f+d[0], r+d[1]
		}
	}
	return mask
}

// occupancySubsets enumerates every subset of the relevant mask (carry-rippler)
// together with the ray-cast attack set for that subset.
func occupancySubsets(sq Square, pt PieceType) (occ, ref []Bitboard) {
	mask := relevantMask(sq, pt)
	dirs := directionsFor(pt)
	n := 1 << mask.PopCount()
	occ = make([]Bitboard, 0, n)
	ref = make([]Bitboard, 0, n)
	subset := Empty
	for {
		occ = append(occ, subset)
		ref = append(ref, slidingAttacks(sq, subset, dirs))
		subset = (subset - mask) & mask
		if subset == 0 {
			break
		}
	}
	return occ, ref
}

// magicFits reports whether magic hashes every subset so that no two subsets
// with different attack sets share an index.
func magicFits(mask Bitboard, shift uint8, magic uint64, occ, ref []Bitboard) bool {
	var c collisionCheck
	return c.fits(mask, shift, magic, occ, ref)
}

// collisionCheck keeps scratch buffers across attempts. An entry is live only
// when its epoch matches the current attempt, so nothing is cleared between
// attempts.
type collisionCheck struct {
	seen  []Bitboard
	epoch []uint32
	cur   uint32
}

func (c *collisionCheck) fits(mask Bitboard, shift uint8, magic uint64, occ, ref []Bitboard) bool {
	size := 1 << (64 - shift)
	if len(c.seen) < size {
		c.seen = make([]Bitboard, size)
		c.epoch = make([]uint32, size)
	}
	c.cur++
	m := Magic{Mask: mask, Magic: magic, Shift: shift}
	for i := range occ {
		idx := m.index(occ[i])
		if c.epoch[idx] == c.cur && c.seen[idx] != ref[i] {
			return false
		}
		c.epoch[idx] = c.cur
		c.seen[idx] = ref[i]
	}
	return true
}

// searchMagic draws sparse random multipliers until one fits.
func searchMagic(sq Square, pt PieceType, mask Bitboard, shift uint8, occ, ref []Bitboard, seed uint64) uint64 {
	rng := newPRNG(seed*0x9E3779B97F4A7C15 + uint64(pt) + 1)
	var c collisionCheck
	for attempt := 0; attempt < 100_000_000; attempt++ {
		magic := rng.sparse()
		// Multipliers that spread few mask bits into the top byte rarely work.
		if Bitboard((uint64(mask)*magic)&0xFF00000000000000).PopCount() < 6 {
			continue
		}
		if c.fits(mask, shift, magic, occ, ref) {
			return magic
		}
	}
	panic(fmt.Sprintf("board: no %v magic found for %v", pt, sq))
}

// FindMagic searches for a collision-free multiplier for a rook or bishop on
// sq, using the standard relevant mask and shift.
func FindMagic(sq Square, pt PieceType, seed uint64) uint64 {
	occ, ref := occupancySubsets(sq, pt)
	mask := relevantMask(sq, pt)
	shift := uint8(64 - mask.PopCount())
	return searchMagic(sq, pt, mask, shift, occ, ref, seed)
}

// VerifyMagic reports whether magic is collision-free for a rook or bishop
// on sq.
func VerifyMagic(sq Square, pt PieceType, magic uint64) bool {
	occ, ref := occupancySubsets(sq, pt)
	mask := relevantMask(sq, pt)
	return magicFits(mask, uint8(64-mask.PopCount()), magic, occ, ref)
}

// RookMagic and BishopMagic expose the parameters in use for sq.
func RookMagic(sq Square) Magic   { return rookMagics[sq] }
func BishopMagic(sq Square) Magic { return bishopMagics[sq] }
