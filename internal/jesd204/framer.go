package jesd204

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	Stamps frame_last / multiframe_last markers on a
 *		D-octet block, per the lane's F/K geometry. Stateless
 *		except for a free-running multiframe-position counter.
 *
 *---------------------------------------------------------------*/

// Framer marks frame and multiframe boundaries within the fixed
// D-octet datapath. Requires F to divide D evenly (F in {1,2,4}) and
// K to be a multiple of D/F - otherwise NewFramer returns
// ErrInvalidGeometry.
type Framer struct {
	clocksPerMultiframe int
	frameLastMask       [D]bool
	counter             int
}

// NewFramer validates the frame/datapath geometry constraints for
// Settings and returns a Framer in its reset state.
func NewFramer(s *JesdSettings) (*Framer, error) {
	f := s.OctetsPerLane
	if f*8 > D*8 {
		return nil, fmt.Errorf("%w: f*8 (%d) > D*8 (%d)", ErrInvalidGeometry, f*8, D*8)
	}
	if (D*8)%(f*8) != 0 {
		return nil, fmt.Errorf("%w: (D*8) mod (f*8) != 0", ErrInvalidGeometry)
	}
	framesPerClock := D / f
	if s.K%framesPerClock != 0 {
		return nil, fmt.Errorf("%w: k mod (D/f) != 0", ErrInvalidGeometry)
	}

	// K frames per multiframe at framesPerClock frames per cycle; equal
	// to LmfcCycles, so the multiframe marker and the LMFC stay phased.
	fr := &Framer{
		clocksPerMultiframe: s.K / framesPerClock,
	}
	for i := 0; i < D; i++ {
		if (i+1)%f == 0 {
			fr.frameLastMask[i] = true
		}
	}
	fr.Reset()
	return fr, nil
}

// Reset zeros the multiframe-position counter.
func (fr *Framer) Reset() {
	fr.counter = 0
}

// Step stamps frame_last/multiframe_last on a block of D octets
// flowing out of the scrambler.
func (fr *Framer) Step(data [D]byte) LaneWord {
	var w LaneWord
	w.Data = data
	w.FrameLast = fr.frameLastMask

	atBoundary := fr.counter == fr.clocksPerMultiframe-1
	if atBoundary {
		for i := range w.MultiframeLast {
			w.MultiframeLast[i] = true
		}
		fr.counter = 0
	} else {
		fr.counter++
	}
	return w
}

// Deframer recovers the plain D-octet data from a framed LaneWord. It
// carries no state: frame geometry only matters to the framer.
type Deframer struct{}

// NewDeframer returns a Deframer; Settings are accepted only to keep
// the TX/RX constructor symmetry explicit at call sites.
func NewDeframer(*JesdSettings) *Deframer { return &Deframer{} }

// Step strips the framing bookkeeping, yielding plain data octets.
func (*Deframer) Step(w LaneWord) [D]byte { return w.Data }
