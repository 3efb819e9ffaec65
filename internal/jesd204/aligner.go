package jesd204

/*------------------------------------------------------------------
 *
 * Purpose:	RX byte aligner: detects the "R" (K28.0) comma anywhere
 *		in a 32-bit PHY word and realigns the octet stream by a
 *		0-3 octet shift, one cycle of latency.
 *
 * Description:	Real transceivers hand back octets with no guaranteed
 *		relationship between octet boundary and PHY word
 *		boundary until the comma is found; this is the software
 *		model of that realignment, driven purely off the "R"
 *		control character rather than 8b/10b comma detection.
 *
 *---------------------------------------------------------------*/

// Aligner realigns a 32-bit-wide PHY word stream by 0-3 octets based
// on the position of the last-seen "R" control character.
type Aligner struct {
	alignment int
	prevData  [D]byte
	prevCtrl  [D]bool
}

// NewAligner returns an Aligner in its reset state.
func NewAligner() *Aligner {
	a := &Aligner{}
	a.Reset()
	return a
}

// Reset zeros the alignment latch and the previous-cycle register.
func (a *Aligner) Reset() {
	a.alignment = 0
	a.prevData = [D]byte{}
	a.prevCtrl = [D]bool{}
}

// Step consumes one cycle's raw data/ctrl from the PHY and returns the
// realigned data/ctrl, one cycle delayed.
func (a *Aligner) Step(data [D]byte, ctrl [D]bool) ([D]byte, [D]bool) {
	// buf is the conceptual concat(last_data, current_data): last_data
	// (the previous cycle's raw octets) occupies the low indices,
	// current_data the high ones. The output window starts at
	// "alignment" octets in, so a comma found at octet i of the
	// previous cycle surfaces at output position 0 on this cycle. The
	// window uses the alignment registered before this cycle's comma
	// search runs - a comma seen just now only takes effect next cycle.
	var bufData [2 * D]byte
	var bufCtrl [2 * D]bool
	copy(bufData[:D], a.prevData[:])
	copy(bufData[D:], data[:])
	copy(bufCtrl[:D], a.prevCtrl[:])
	copy(bufCtrl[D:], ctrl[:])

	start := a.alignment
	var outData [D]byte
	var outCtrl [D]bool
	copy(outData[:], bufData[start:start+D])
	copy(outCtrl[:], bufCtrl[start:start+D])

	for i := 0; i < D; i++ {
		if ctrl[i] && data[i] == CtrlR {
			a.alignment = i
		}
	}

	a.prevData = data
	a.prevCtrl = ctrl
	return outData, outCtrl
}
