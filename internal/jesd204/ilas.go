package jesd204

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	Initial Lane Alignment Sequence: the 4-multiframe block
 *		that carries the 14-octet configuration data and lets
 *		the far end align per-lane skew before DATA begins.
 *
 * Description:	Both generator and checker precompute the same
 *		octet/ctrl lookup table (one table shared per lane,
 *		since it only depends on Settings+lid) and stream
 *		through it D octets at a time.
 *
 *---------------------------------------------------------------*/

const ilasMultiframes = 4

// ilasTable is the flat, precomputed octet/ctrl sequence for one
// lane's ILAS block, sized octets_per_lane*k*4.
type ilasTable struct {
	data [][D]byte
	ctrl [][D]bool
}

func buildILASTable(s *JesdSettings, lid int, withCounter bool) (*ilasTable, error) {
	cfg, err := s.ConfigurationOctets(lid)
	if err != nil {
		return nil, err
	}

	octetsPerMultiframe := s.OctetsPerLane * s.K
	total := octetsPerMultiframe * ilasMultiframes

	octets := make([]byte, total)
	isCtrl := make([]bool, total)

	for mf := 0; mf < ilasMultiframes; mf++ {
		base := mf * octetsPerMultiframe
		for j := 0; j < octetsPerMultiframe; j++ {
			if withCounter {
				octets[base+j] = byte((base + j) % 256)
			} else {
				octets[base+j] = 0
			}
		}
		octets[base] = CtrlR
		isCtrl[base] = true
		octets[base+octetsPerMultiframe-1] = CtrlA
		isCtrl[base+octetsPerMultiframe-1] = true

		if mf == 1 {
			octets[base+1] = CtrlQ
			isCtrl[base+1] = true
			for i := 0; i < len(cfg); i++ {
				octets[base+2+i] = cfg[i]
			}
		}
	}

	if total%D != 0 {
		// octets_per_lane*k is always a multiple of D by the Framer
		// geometry constraint (f divides D); kept as a defensive
		// invariant rather than a reachable runtime condition.
		return nil, fmt.Errorf("%w: ilas length %d not a multiple of %d", ErrInvalidGeometry, total, D)
	}

	words := total / D
	t := &ilasTable{
		data: make([][D]byte, words),
		ctrl: make([][D]bool, words),
	}
	for w := 0; w < words; w++ {
		for j := 0; j < D; j++ {
			t.data[w][j] = octets[w*D+j]
			t.ctrl[w][j] = isCtrl[w*D+j]
		}
	}
	return t, nil
}

// ILASGenerator streams the ILAS block for one lane, raising Last on
// the final word and Done thereafter.
type ILASGenerator struct {
	table   *ilasTable
	counter int
}

// NewILASGenerator builds the ILAS table for lane lid and returns a
// generator in its reset state. withCounter selects the ramp fill
// pattern; false fills the non-marker octets with zero instead.
func NewILASGenerator(s *JesdSettings, lid int, withCounter bool) (*ILASGenerator, error) {
	t, err := buildILASTable(s, lid, withCounter)
	if err != nil {
		return nil, err
	}
	g := &ILASGenerator{table: t}
	g.Reset()
	return g, nil
}

// Reset rewinds the generator to the start of the ILAS block.
func (g *ILASGenerator) Reset() { g.counter = 0 }

// Done reports whether the full block has been streamed.
func (g *ILASGenerator) Done() bool { return g.counter >= len(g.table.data) }

// Step returns the next ILAS LaneWord. Safe to keep calling after
// Done(); it holds the final word.
func (g *ILASGenerator) Step() LaneWord {
	idx := g.counter
	if idx >= len(g.table.data) {
		idx = len(g.table.data) - 1
	}
	var w LaneWord
	w.Data = g.table.data[idx]
	w.Ctrl = g.table.ctrl[idx]
	w.Last = g.counter == len(g.table.data)-1
	if !g.Done() {
		g.counter++
	}
	return w
}

// ILASChecker validates an incoming LaneWord stream against the same
// table an ILASGenerator with matching parameters would produce.
type ILASChecker struct {
	table   *ilasTable
	counter int
	valid   bool
}

// NewILASChecker builds the ILAS table for lane lid and returns a
// checker in its reset state.
func NewILASChecker(s *JesdSettings, lid int, withCounter bool) (*ILASChecker, error) {
	t, err := buildILASTable(s, lid, withCounter)
	if err != nil {
		return nil, err
	}
	c := &ILASChecker{table: t}
	c.Reset()
	return c, nil
}

// Reset rewinds the checker and clears its error state.
func (c *ILASChecker) Reset() {
	c.counter = 0
	c.valid = true
}

// Done reports whether the full block has been checked.
func (c *ILASChecker) Done() bool { return c.counter >= len(c.table.data) }

// Valid reports whether every word seen so far matched the table.
func (c *ILASChecker) Valid() bool { return c.valid }

// Step compares w against the expected word and advances the counter.
func (c *ILASChecker) Step(w LaneWord) {
	if c.Done() {
		return
	}
	if w.Data != c.table.data[c.counter] || w.Ctrl != c.table.ctrl[c.counter] {
		c.valid = false
	}
	c.counter++
}
