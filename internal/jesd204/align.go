package jesd204

/*------------------------------------------------------------------
 *
 * Purpose:	Marks scrambled octets that happen to equal a control
 *		character at a frame/multiframe boundary as control
 *		characters ("A"/"F"), and the RX-side inverse.
 *
 *---------------------------------------------------------------*/

// AlignInserter is stateless: every cycle is independent.
type AlignInserter struct{}

// NewAlignInserter returns an AlignInserter.
func NewAlignInserter() *AlignInserter { return &AlignInserter{} }

// Step marks the boundary octets of w that coincide with the "A"/"F"
// control character values.
func (*AlignInserter) Step(w LaneWord) LaneWord {
	out := w
	for i := 0; i < D; i++ {
		switch {
		case w.MultiframeLast[i] && w.Data[i] == CtrlA:
			out.Ctrl[i] = true
		case w.FrameLast[i] && w.Data[i] == CtrlF:
			out.Ctrl[i] = true
		}
	}
	return out
}

// AlignReplacer is the RX inverse: under scrambled operation the
// inserted "A"/"F" control characters are bit-identical to the data
// octet they replaced, so recovery is simply clearing the control
// bits.
type AlignReplacer struct{}

// NewAlignReplacer returns an AlignReplacer.
func NewAlignReplacer() *AlignReplacer { return &AlignReplacer{} }

// Step clears the control bits set by AlignInserter.
func (*AlignReplacer) Step(w LaneWord) LaneWord {
	out := w
	for i := 0; i < D; i++ {
		out.Ctrl[i] = false
	}
	return out
}
