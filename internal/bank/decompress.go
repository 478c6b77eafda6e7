package bank

import (
	"encoding/binary"
	"fmt"
)

// Decompress expands a back-to-front LZ-with-RCR-bitstream blob (spec.md
// §4.1). If the blob's packed size already equals its declared unpacked
// size the caller should skip this entirely and use the raw bytes — this
// function always does the full rotate-through-carry decode.
//
// The compressed blob is consumed back-to-front in 32-bit big-endian words:
// the declared remaining-size counter, then crc, then the initial chk word
// (crc is immediately XORed with chk), then the token stream. Output bytes
// accumulate forwards and are reversed once before return.
func Decompress(packed []byte) ([]byte, error) {
	if len(packed)%4 != 0 {
		return nil, fmt.Errorf("bank: decompress: packed blob length %d is not a multiple of 4", len(packed))
	}
	u := &unpacker{
		words: bigEndianWords(packed),
	}
	u.pos = len(u.words)

	size, err := u.fetchWordSigned()
	if err != nil {
		return nil, err
	}
	if u.crc, err = u.fetchWord(); err != nil {
		return nil, err
	}
	if u.chk, err = u.fetchWord(); err != nil {
		return nil, err
	}
	u.crc ^= u.chk

	out := make([]byte, 0, size)
	for size > 0 {
		n, err := u.decodeToken(&out)
		if err != nil {
			return nil, err
		}
		size -= n
	}

	reverse(out)
	return out, nil
}

func bigEndianWords(packed []byte) []uint32 {
	words := make([]uint32, len(packed)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(packed[i*4 : i*4+4])
	}
	return words
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// unpacker holds the back-to-front word cursor and the rotate-through-carry
// bit state (spec.md §4.1).
type unpacker struct {
	words []uint32
	pos   int // index one past the next word to fetch; decremented on fetch

	crc uint32
	chk uint32
}

// fetchWord pops the next word walking backward from the end of the blob —
// "back-to-front" per spec.md §4.1. A short read (running off the front of
// the blob) is a fatal I/O error.
func (u *unpacker) fetchWord() (uint32, error) {
	if u.pos <= 0 {
		return 0, fmt.Errorf("bank: decompress: ran out of input words")
	}
	u.pos--
	return u.words[u.pos], nil
}

func (u *unpacker) fetchWordSigned() (int32, error) {
	w, err := u.fetchWord()
	return int32(w), err
}

// rcr shifts chk right by one bit and returns the bit that was shifted out;
// when carryIn is true the new MSB of chk is set to 1, the end-of-word marker
// that nextBit later sees as chk reaching zero (spec.md §4.1).
func (u *unpacker) rcr(carryIn bool) bool {
	lsb := u.chk&1 != 0
	u.chk >>= 1
	if carryIn {
		u.chk |= 0x80000000
	}
	return lsb
}

// nextBit returns the next bit of the bitstream, LSB-first out of chk;
// refilling chk from the next word (and folding it into crc) whenever chk
// has been drained to zero.
func (u *unpacker) nextBit() (bool, error) {
	bit := u.rcr(false)
	if u.chk == 0 {
		w, err := u.fetchWord()
		if err != nil {
			return false, err
		}
		u.chk = w
		u.crc ^= w
		bit = u.rcr(true)
	}
	return bit, nil
}

// code reads n bits MSB-first into a single value (each bit shifted in from
// the low end), the shared building block for every token's fixed-width
// fields.
func (u *unpacker) code(n uint) (uint32, error) {
	var v uint32
	for i := uint(0); i < n; i++ {
		bit, err := u.nextBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v, nil
}

// decodeToken decodes exactly one token per the table in spec.md §4.1 and
// appends its output bytes to out, returning the number of bytes emitted.
func (u *unpacker) decodeToken(out *[]byte) (int32, error) {
	bit0, err := u.nextBit()
	if err != nil {
		return 0, err
	}
	if !bit0 {
		bit1, err := u.nextBit()
		if err != nil {
			return 0, err
		}
		if !bit1 {
			return u.decodeLiteral(3, 0, out)
		}
		return u.decodeReference(8, 2, out)
	}

	code, err := u.code(2)
	if err != nil {
		return 0, err
	}
	switch {
	case code == 3:
		return u.decodeLiteral(8, 8, out)
	case code < 2:
		return u.decodeReference(uint(code)+9, int(code)+3, out)
	default:
		length, err := u.code(8)
		if err != nil {
			return 0, err
		}
		return u.decodeReference(12, int(length)+1, out)
	}
}

func (u *unpacker) decodeLiteral(bitLength uint, additional int, out *[]byte) (int32, error) {
	n, err := u.code(bitLength)
	if err != nil {
		return 0, err
	}
	length := int(n) + additional + 1
	for i := 0; i < length; i++ {
		b, err := u.code(8)
		if err != nil {
			return 0, err
		}
		*out = append(*out, byte(b))
	}
	return int32(length), nil
}

// decodeReference copies length bytes from offset bytes behind the current
// output position; an index before the start of the output produces a zero
// byte rather than failing (spec.md §4.1).
func (u *unpacker) decodeReference(bitLength uint, length int, out *[]byte) (int32, error) {
	off, err := u.code(bitLength)
	if err != nil {
		return 0, err
	}
	offset := uint16(len(*out)) - uint16(off)
	for i := 0; i < length; i++ {
		idx := int(offset + uint16(i))
		var b byte
		if idx < len(*out) {
			b = (*out)[idx]
		}
		*out = append(*out, b)
	}
	return int32(length), nil
}
