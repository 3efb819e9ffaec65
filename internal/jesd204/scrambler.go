package jesd204

import "encoding/binary"

/*------------------------------------------------------------------
 *
 * Purpose:	Self-synchronous scrambler / descrambler, polynomial
 *		1 + x^14 + x^15, operating on 32-bit blocks of the lane
 *		datapath.
 *
 * Description:	Every call processes one 32-bit block in the
 *		"swizzled" byte order (octet 3 first, MSB-first), which
 *		reduces to a big-endian read/write of the LaneWord's
 *		octets. The hardware register stage collapses here into
 *		a combinational Step, so scramble and descramble
 *		round-trip within the same cycle.
 *
 *---------------------------------------------------------------*/

const scramblerSeed uint16 = 0x7f80

// scramblerFeedback computes the TX feedback word: feedback[k] =
// full[k+15] ^ full[k+14] ^ x[k], where full is the conceptual 47-bit
// vector formed by feedback itself (bits 0..31) followed by state
// (bits 32..46). Because index k+14/k+15 is always > k, feedback bits
// resolve top-down from bit 31 to bit 0 - this is the self-referential
// half of the LFSR, unlike the descrambler below.
func scramblerFeedback(x uint32, state uint16) uint32 {
	var fb [32]uint32
	full := func(b int) uint32 {
		if b < 32 {
			return fb[b]
		}
		return uint32(state>>uint(b-32)) & 1
	}
	for i := 31; i >= 0; i-- {
		fb[i] = full(i+15) ^ full(i+14) ^ ((x >> uint(i)) & 1)
	}
	var result uint32
	for i := 0; i < 32; i++ {
		result |= fb[i] << uint(i)
	}
	return result
}

// descramblerFeedback computes the RX feedback word: feedback[k] =
// full[k+15] ^ full[k+14] ^ full[k], where full is the 47-bit vector
// formed by the *received* ciphertext (bits 0..31) followed by state
// (bits 32..46). Unlike the scrambler, every bit of full is already
// known up front (ciphertext and old state), so no recursion is
// needed - this directness is exactly what lets the descrambler
// self-recover after a ciphertext bit error instead of propagating it.
func descramblerFeedback(x uint32, state uint16) uint32 {
	full := func(b int) uint32 {
		if b < 32 {
			return (x >> uint(b)) & 1
		}
		return uint32(state>>uint(b-32)) & 1
	}
	var result uint32
	for k := 0; k < 32; k++ {
		bit := full(k+15) ^ full(k+14) ^ full(k)
		result |= bit << uint(k)
	}
	return result
}

// Scrambler is the TX self-synchronous scrambler.
type Scrambler struct {
	state uint16
}

// NewScrambler returns a Scrambler in its reset state.
func NewScrambler() *Scrambler {
	s := &Scrambler{}
	s.Reset()
	return s
}

// Reset restores the LFSR to its initial seed.
func (s *Scrambler) Reset() {
	s.state = scramblerSeed
}

// Step scrambles one 32-bit block of octets.
func (s *Scrambler) Step(in [D]byte) [D]byte {
	x := binary.BigEndian.Uint32(in[:])
	fb := scramblerFeedback(x, s.state)
	s.state = uint16(fb & 0x7fff)

	var out [D]byte
	binary.BigEndian.PutUint32(out[:], fb)
	return out
}

// Descrambler is the RX inverse of Scrambler. It self-recovers within
// 15 output bits after any single-bit error in its input.
type Descrambler struct {
	state uint16
}

// NewDescrambler returns a Descrambler in its reset state.
func NewDescrambler() *Descrambler {
	d := &Descrambler{}
	d.Reset()
	return d
}

// Reset restores the LFSR to its initial seed.
func (d *Descrambler) Reset() {
	d.state = scramblerSeed
}

// Step descrambles one 32-bit block of octets.
func (d *Descrambler) Step(in [D]byte) [D]byte {
	x := binary.BigEndian.Uint32(in[:])
	fb := descramblerFeedback(x, d.state)
	d.state = uint16(x & 0x7fff)

	var out [D]byte
	binary.BigEndian.PutUint32(out[:], fb)
	return out
}
