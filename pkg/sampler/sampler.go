// Package sampler produces the deterministic stream of candidate addresses
// examined by the search engines. Every attempt index maps to exactly one
// 20-byte address, so CPU workers and GPU threads enumerating disjoint index
// ranges examine disjoint candidates.
package sampler

import "encoding/binary"

// Multiplier is the fixed odd constant of the xorshift64* output transform.
const Multiplier = 0x2545F4914F6CDD1D

// Xorshift64Star is a 64-bit xorshift generator with a multiplicative output
// scramble. State must never be zero.
type Xorshift64Star struct {
	state uint64
}

// New creates a generator. A zero seed is coerced to 1; the state space of
// xorshift64* excludes zero.
func New(seed uint64) Xorshift64Star {
	if seed == 0 {
		seed = 1
	}
	return Xorshift64Star{state: seed}
}

// Next returns the next 64-bit draw.
func (x *Xorshift64Star) Next() uint64 {
	s := x.state
	s ^= s >> 12
	s ^= s << 25
	s ^= s >> 27
	x.state = s
	return s * Multiplier
}

// AddressAt writes the candidate address for an attempt index into addr.
// The generator state starts at index+1, three draws yield 24 bytes and the
// first 20 form the address.
func AddressAt(index uint64, addr *[20]byte) {
	x := New(index + 1)
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], x.Next())
	binary.LittleEndian.PutUint64(buf[8:16], x.Next())
	binary.LittleEndian.PutUint64(buf[16:24], x.Next())
	copy(addr[:], buf[:20])
}

// Address returns the candidate address for an attempt index.
func Address(index uint64) [20]byte {
	var addr [20]byte
	AddressAt(index, &addr)
	return addr
}
