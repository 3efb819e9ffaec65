package jesd204

/*------------------------------------------------------------------
 *
 * Purpose:	Local Multiframe Clock: the shared timebase every lane's
 *		link FSM gates its CGS/ILAS/DATA transitions on, per
 *		JESD204B section 5.3.3.8.
 *
 * Description:	jref (SYSREF) is a periodic external reference; each
 *		rising edge reloads the counter to Load so every lane (and
 *		every link sharing the same jref) stays aligned to the
 *		same multiframe boundary regardless of how each lane's own
 *		FSM is progressing.
 *
 *---------------------------------------------------------------*/

// LMFC is the local multiframe counter: c in [0, LmfcCycles), reloaded
// to Load on every jref rising edge, otherwise free-running mod
// LmfcCycles.
type LMFC struct {
	cycles int

	// Load is the value a jref rising edge reloads the counter to.
	// Zero by default.
	Load int

	counter  int
	prevJref bool
}

// NewLMFC returns an LMFC sized from s.LmfcCycles, in its reset state.
func NewLMFC(s *JesdSettings) *LMFC {
	l := &LMFC{cycles: s.LmfcCycles}
	l.Reset()
	return l
}

// Reset rewinds the counter to Load and clears the jref edge detector.
func (l *LMFC) Reset() {
	l.counter = l.Load
	l.prevJref = false
}

// Step advances the counter one jesd cycle given this cycle's jref
// level, and reports whether the counter is now zero.
func (l *LMFC) Step(jref bool) (zero bool) {
	if jref && !l.prevJref {
		l.counter = l.Load
	} else {
		l.counter = (l.counter + 1) % l.cycles
	}
	l.prevJref = jref
	return l.counter == 0
}

// Count returns the current position within the multiframe.
func (l *LMFC) Count() int { return l.counter }
