package otbuild

// Writing bytes of a font's binary representation.
// OpenType stores all numbers big-endian.

type buffer []byte

func (b *buffer) u8(v uint8) {
	*b = append(*b, v)
}

func (b *buffer) u16(v uint16) {
	*b = append(*b, byte(v>>8), byte(v))
}

func (b *buffer) i16(v int16) {
	b.u16(uint16(v))
}

func (b *buffer) u32(v uint32) {
	*b = append(*b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (b *buffer) i64(v int64) {
	b.u32(uint32(uint64(v) >> 32))
	b.u32(uint32(v))
}

func (b *buffer) bytes(p []byte) {
	*b = append(*b, p...)
}

// pad appends zero bytes up to the next multiple of 4.
func (b *buffer) pad() {
	for len(*b)%4 != 0 {
		*b = append(*b, 0)
	}
}

func putU16(b []byte, v uint16) {
	_ = b[1] // Bounds check hint to compiler
	b[0], b[1] = byte(v>>8), byte(v)
}

func putU32(b []byte, v uint32) {
	_ = b[3] // Bounds check hint to compiler
	b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}

// Checksum is the OpenType table checksum: the sum of all big-endian uint32
// words of b, with b zero-padded to a multiple of 4.
func Checksum(b []byte) uint32 {
	var sum uint32
	for len(b) >= 4 {
		sum += uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		b = b[4:]
	}
	var last [4]byte
	copy(last[:], b)
	return sum + (uint32(last[0])<<24 | uint32(last[1])<<16 | uint32(last[2])<<8 | uint32(last[3]))
}
