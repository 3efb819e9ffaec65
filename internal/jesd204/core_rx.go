package jesd204

import "github.com/charmbracelet/log"

/*------------------------------------------------------------------
 *
 * Purpose:	RX core: recovers L lanes' worth of octets, absorbs
 *		their relative skew, and reassembles converter samples
 *		one frame at a time.
 *
 * Description:	jsyncOut is the logical AND of every lane's own sync
 *		line, matching the wired-AND SYNC~ topology of a real
 *		subclass 0 link: any lane still hunting for CGS holds the
 *		whole link's outbound SYNC~ deasserted.
 *
 *---------------------------------------------------------------*/

// CoreRX orchestrates every lane of one RX link.
type CoreRX struct {
	s         *JesdSettings
	transport *TransportRX
	lmfc      *LMFC
	lanes     []*LinkRX
	skew      []*SkewFIFO
	frameBufs []octetQueue
	logger    *log.Logger

	enabled bool

	// ready holds the AND of every lane's RECEIVE-DATA state as
	// sampled on the most recent lmfc-zero cycle.
	ready bool

	stplEnable bool
	stplChecks []*STPLChecker
}

// NewCoreRX builds a CoreRX with one LinkRX per lane and a single
// LMFC shared across them.
func NewCoreRX(s *JesdSettings, withCounter, scramble bool) (*CoreRX, error) {
	transport, err := NewTransportRX(s)
	if err != nil {
		return nil, err
	}
	c := &CoreRX{
		s:         s,
		transport: transport,
		lmfc:      NewLMFC(s),
		lanes:     make([]*LinkRX, s.L),
		skew:      make([]*SkewFIFO, s.L),
		frameBufs: make([]octetQueue, s.L),
		enabled:   true,
	}
	for l := 0; l < s.L; l++ {
		lane, err := NewLinkRX(s, l, withCounter, scramble)
		if err != nil {
			return nil, err
		}
		c.lanes[l] = lane
		c.skew[l] = NewSkewFIFO()
	}
	return c, nil
}

// SetEnable gates the core. While disabled every lane is held in
// RECEIVE-CGS.
func (c *CoreRX) SetEnable(enable bool) { c.enabled = enable }

// SetLogger attaches a logger reporting per-lane state transitions at
// debug level and link-loss/ILAS-mismatch events at warn. Nil, the
// default, keeps the core silent.
func (c *CoreRX) SetLogger(logger *log.Logger) { c.logger = logger }

// SetILASCheck makes every lane fall back to RECEIVE-CGS on an ILAS
// block that doesn't match its expected configuration, instead of
// carrying the mismatch into RECEIVE-DATA as a status flag.
func (c *CoreRX) SetILASCheck(enable bool) {
	for _, lane := range c.lanes {
		lane.ILASCheck = enable
	}
}

// SetSTPL runs every recovered frame through a per-converter Short
// Transport Layer Pattern checker; read the result with
// STPLMismatches.
func (c *CoreRX) SetSTPL(enable, random bool) {
	c.stplEnable = enable
	if !enable {
		c.stplChecks = nil
		return
	}
	c.stplChecks = make([]*STPLChecker, c.s.M)
	for m := 0; m < c.s.M; m++ {
		c.stplChecks[m] = NewSTPLChecker(m, c.s.S, random)
	}
}

// STPLMismatches totals the per-converter STPL error counters.
func (c *CoreRX) STPLMismatches() uint32 {
	var total uint32
	for _, check := range c.stplChecks {
		total += check.MismatchCount()
	}
	return total
}

// Enabled reports the core's current gate state.
func (c *CoreRX) Enabled() bool { return c.enabled }

// Ready reports whether every lane was in RECEIVE-DATA as of the most
// recent multiframe boundary. Unlike Synced it only changes on
// lmfc-zero cycles, giving downstream consumers a multiframe-stable
// view of link health.
func (c *CoreRX) Ready() bool { return c.ready }

// Synced reports whether every lane has reached RECEIVE-DATA.
func (c *CoreRX) Synced() bool {
	for _, lane := range c.lanes {
		if lane.State() != LinkRXStateData {
			return false
		}
	}
	return true
}

// Align reports whether lane's PHY should run comma detection; see
// LinkRX.Align.
func (c *CoreRX) Align(lane int) bool { return c.lanes[lane].Align() }

// ILASValid reports whether every lane's ILAS block matched its
// expected configuration.
func (c *CoreRX) ILASValid() bool {
	for _, lane := range c.lanes {
		if !lane.ILASValid() {
			return false
		}
	}
	return true
}

// Step advances every lane by one jesd cycle, given this cycle's raw
// PHY octets and control flags per lane plus this cycle's jref level.
// It returns every frame's worth of recovered samples that completed
// this cycle - frames[i][c][k] is converter c's k'th sample of the
// i'th recovered frame; a cycle packing D/F frames yields D/F bundles
// once the link is up, and none while it isn't - plus the outbound
// SYNC~ request line.
func (c *CoreRX) Step(rawData [][D]byte, rawCtrl [][D]bool, jref bool) (frames [][][]uint32, jsyncOut bool) {
	lmfcZero := c.lmfc.Step(jref)
	if !c.enabled {
		for _, lane := range c.lanes {
			lane.Reset()
		}
		for l := range c.skew {
			c.skew[l].Reset()
			c.frameBufs[l].reset()
		}
		c.ready = false
		return nil, false
	}

	jsyncOut = true
	for l := 0; l < c.s.L; l++ {
		prev := c.lanes[l].State()
		out, synced := c.lanes[l].Step(rawData[l], rawCtrl[l], lmfcZero)
		if !synced {
			jsyncOut = false
		}
		if c.logger != nil && c.lanes[l].State() != prev {
			c.logger.Debug("rx lane state", "lane", l, "from", prev, "to", c.lanes[l].State())
			if prev == LinkRXStateData && c.lanes[l].LinkLoss {
				c.logger.Warn("rx lane lost link", "lane", l)
			}
			if prev == LinkRXStateILAS && c.lanes[l].State() == LinkRXStateData && !c.lanes[l].ILASValid() {
				c.logger.Warn("rx lane ilas mismatch", "lane", l)
			}
		}
		// The lane must have been in RECEIVE-DATA when the word went
		// in: on the ILAS-completion cycle State() already reads
		// RECEIVE-DATA but the word just consumed was still ILAS.
		if prev == LinkRXStateData && c.lanes[l].State() == LinkRXStateData {
			c.skew[l].Push(out)
		} else {
			// A lane that just dropped out of RECEIVE-DATA (or never
			// reached it) is not ready; its skew FIFO must not hold
			// stale octets left over from before the drop. The other
			// lanes' frame buffers are untouched: they only advance in
			// lockstep with this one (see the allReady gate below), so
			// they are already at the same phase this lane is.
			c.skew[l].Reset()
		}
	}

	if lmfcZero {
		c.ready = c.Synced()
	}

	allReady := true
	for l := 0; l < c.s.L; l++ {
		if c.skew[l].Len() == 0 {
			allReady = false
			break
		}
	}
	if allReady {
		for l := 0; l < c.s.L; l++ {
			c.frameBufs[l].push(sliceOf(c.skew[l].Pop()))
		}
	}

	// One cycle deposits D octets per lane but a frame is only F, so
	// drain every complete frame - otherwise the frame buffers would
	// grow without bound whenever F < D.
	for c.allFrameBufsHold(c.s.F) {
		frame := make([][]byte, c.s.L)
		for l := 0; l < c.s.L; l++ {
			frame[l] = make([]byte, c.s.F)
			copy(frame[l], c.frameBufs[l].buf[:c.s.F])
			c.frameBufs[l].buf = c.frameBufs[l].buf[c.s.F:]
		}
		samples := c.transport.Step(frame)
		if c.stplEnable {
			for m := 0; m < c.s.M; m++ {
				c.stplChecks[m].Step(samples[m])
			}
		}
		frames = append(frames, samples)
	}
	return frames, jsyncOut
}

func (c *CoreRX) allFrameBufsHold(n int) bool {
	for l := 0; l < c.s.L; l++ {
		if c.frameBufs[l].len() < n {
			return false
		}
	}
	return true
}

func sliceOf(w [D]byte) []byte {
	b := make([]byte, D)
	copy(b, w[:])
	return b
}
