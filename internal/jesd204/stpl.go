package jesd204

/*------------------------------------------------------------------
 *
 * Purpose:	Short Transport Layer Pattern: a deterministic
 *		per-converter test pattern used to exercise the transport
 *		mapper and link datapath without a live converter
 *		attached.
 *
 * Description:	STPL is purely positional: converter c's j-th sample
 *		within a frame of s samples is seed = (c<<8)|(j mod s),
 *		optionally scrambled through a fixed multiplicative
 *		congruential step. Neither mode carries any state across
 *		Step calls - the same frame is produced every time.
 *
 *---------------------------------------------------------------*/

// stplMultiplier is the LCG-style multiplier the random STPL variant
// scrambles its seed with, matching the reference generator.
const stplMultiplier = 0x31415979

// stplValue computes converter c's sample j (of s samples per frame).
func stplValue(c, j, s int, random bool) uint32 {
	seed := uint32(c<<8) | uint32(j%s)
	if !random {
		return seed
	}
	return uint32((uint64(seed+1)*stplMultiplier + 1) % (1 << 16))
}

// STPLGenerator emits converter c's Short Transport Layer Pattern, s
// samples per Step call.
type STPLGenerator struct {
	converter int
	s         int
	random    bool
}

// NewSTPLGenerator returns an STPLGenerator for converter, producing s
// samples per frame in fixed or random mode.
func NewSTPLGenerator(converter, s int, random bool) *STPLGenerator {
	return &STPLGenerator{converter: converter, s: s, random: random}
}

// Reset is a no-op: STPL carries no state to rewind.
func (g *STPLGenerator) Reset() {}

// Step returns the converter's s sample values for one frame.
func (g *STPLGenerator) Step() []uint32 {
	out := make([]uint32, g.s)
	for j := 0; j < g.s; j++ {
		out[j] = stplValue(g.converter, j, g.s, g.random)
	}
	return out
}

// STPLChecker validates an incoming sample frame against the sequence
// an STPLGenerator with matching parameters would produce, counting
// mismatches in a running error counter rather than failing outright.
type STPLChecker struct {
	converter     int
	s             int
	random        bool
	mismatchCount uint32
}

// NewSTPLChecker returns an STPLChecker for converter, checking s
// samples per frame in fixed or random mode.
func NewSTPLChecker(converter, s int, random bool) *STPLChecker {
	return &STPLChecker{converter: converter, s: s, random: random}
}

// Reset clears the mismatch count.
func (c *STPLChecker) Reset() { c.mismatchCount = 0 }

// MismatchCount reports the number of samples that have disagreed with
// the expected pattern since the last Reset.
func (c *STPLChecker) MismatchCount() uint32 { return c.mismatchCount }

// Step compares in, one frame of s samples, against the expected
// pattern.
func (c *STPLChecker) Step(in []uint32) {
	for j := 0; j < c.s && j < len(in); j++ {
		if in[j] != stplValue(c.converter, j, c.s, c.random) {
			c.mismatchCount++
		}
	}
}
