package jesd204

import "github.com/charmbracelet/log"

/*------------------------------------------------------------------
 *
 * Purpose:	TX core: fans a shared sample stream out across L lanes,
 *		one LinkTX per lane, and tracks link restarts.
 *
 * Description:	All lanes share one jsync input and one withCounter/
 *		scramble configuration, so their state machines run in
 *		lockstep; a per-lane octet queue still bridges the
 *		Transport Mapper's F-octet frames to the D-octet-per-cycle
 *		datapath independently per lane.
 *
 *---------------------------------------------------------------*/

// CoreTX orchestrates every lane of one TX link.
type CoreTX struct {
	s         *JesdSettings
	transport *TransportTX
	lmfc      *LMFC
	lanes     []*LinkTX
	queues    []octetQueue
	logger    *log.Logger

	enabled bool

	stplEnable bool
	stplGens   []*STPLGenerator

	// ready is the registered AND of every lane's SEND-DATA state,
	// one cycle behind the combinational value for stability.
	ready bool

	restartCount int
}

// NewCoreTX builds a CoreTX with one LinkTX per lane, all sharing
// withCounter and scramble settings and a single LMFC.
func NewCoreTX(s *JesdSettings, withCounter, scramble bool) (*CoreTX, error) {
	transport, err := NewTransportTX(s)
	if err != nil {
		return nil, err
	}
	c := &CoreTX{
		s:         s,
		transport: transport,
		lmfc:      NewLMFC(s),
		lanes:     make([]*LinkTX, s.L),
		queues:    make([]octetQueue, s.L),
		enabled:   true,
	}
	for l := 0; l < s.L; l++ {
		lane, err := NewLinkTX(s, l, withCounter, scramble)
		if err != nil {
			return nil, err
		}
		c.lanes[l] = lane
	}
	return c, nil
}

// SetEnable gates the core. While disabled jsync is forced false: a
// lane in SEND-DATA falls back to SEND-CGS once the sync guard expires
// (counted as a restart), and every lane then holds SEND-CGS.
func (c *CoreTX) SetEnable(enable bool) { c.enabled = enable }

// SetLogger attaches a logger reporting per-lane state transitions at
// debug level and link restarts at warn. Nil, the default, keeps the
// core silent.
func (c *CoreTX) SetLogger(logger *log.Logger) { c.logger = logger }

// SetSTPL switches the transport mapper's sink between the caller's
// sample bundles and the Short Transport Layer Pattern. While enabled
// the samples argument to Step is ignored.
func (c *CoreTX) SetSTPL(enable, random bool) {
	c.stplEnable = enable
	if !enable {
		c.stplGens = nil
		return
	}
	c.stplGens = make([]*STPLGenerator, c.s.M)
	for m := 0; m < c.s.M; m++ {
		c.stplGens[m] = NewSTPLGenerator(m, c.s.S, random)
	}
}

// Enabled reports the core's current gate state.
func (c *CoreTX) Enabled() bool { return c.enabled }

// Ready reports whether every lane was in SEND-DATA as of the last
// Step, registered one cycle behind the lanes themselves.
func (c *CoreTX) Ready() bool { return c.ready }

// RestartCount reports how many times any lane has fallen back to
// SEND-CGS after having reached SEND-ILAS or SEND-DATA, saturating
// rather than wrapping.
func (c *CoreTX) RestartCount() int { return c.restartCount }

// ClearRestartCount zeros the restart counter.
func (c *CoreTX) ClearRestartCount() { c.restartCount = 0 }

// Step advances every lane by one jesd cycle. samples is only consumed
// when a lane in SEND-DATA needs to refill its transport queue; each
// refill maps one frame, so a cycle packing D/F frames consumes the
// same bundle D/F times. Pass a fully populated [M][S]uint32 each call
// regardless (nil is fine while the STPL switch is on). While the core
// is disabled, jsync is forced false so every lane ends up in, and
// then holds, SEND-CGS.
func (c *CoreTX) Step(jsync, jref bool, samples [][]uint32) []LaneWord {
	// Latch ready from the states the lanes ended the previous cycle
	// in, so it lags the combinational AND by one cycle.
	allData := true
	for l := 0; l < c.s.L; l++ {
		if c.lanes[l].State() != LinkStateData {
			allData = false
			break
		}
	}
	c.ready = allData

	lmfcZero := c.lmfc.Step(jref)
	effectiveJsync := jsync && c.enabled

	// Frames are F octets but the datapath drains D octets per cycle,
	// so one refill can take several frames (e.g. two when F=2).
	for c.anyLaneNeedsRefill() {
		frame := c.transport.Step(c.frameSamples(samples))
		for l := 0; l < c.s.L; l++ {
			c.queues[l].push(frame[l])
		}
	}

	out := make([]LaneWord, c.s.L)
	for l := 0; l < c.s.L; l++ {
		lane := c.lanes[l]
		prev := lane.State()

		var data [D]byte
		if prev == LinkStateData && c.queues[l].len() >= D {
			data = c.queues[l].popD()
		}

		out[l] = lane.Step(effectiveJsync, lmfcZero, data)

		if c.logger != nil && lane.State() != prev {
			c.logger.Debug("tx lane state", "lane", l, "from", prev, "to", lane.State())
		}
		if (prev == LinkStateILAS || prev == LinkStateData) && lane.State() == LinkStateCGS {
			c.restartCount = saturatingIncr(c.restartCount)
			c.queues[l].reset()
			if c.logger != nil {
				c.logger.Warn("tx lane restarted", "lane", l, "restarts", c.restartCount)
			}
		}
	}
	return out
}

func (c *CoreTX) anyLaneNeedsRefill() bool {
	for l := 0; l < c.s.L; l++ {
		if c.lanes[l].State() == LinkStateData && c.queues[l].len() < D {
			return true
		}
	}
	return false
}

func (c *CoreTX) frameSamples(samples [][]uint32) [][]uint32 {
	if !c.stplEnable {
		return samples
	}
	stpl := make([][]uint32, c.s.M)
	for m := 0; m < c.s.M; m++ {
		stpl[m] = c.stplGens[m].Step()
	}
	return stpl
}
