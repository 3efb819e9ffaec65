// Package phy provides the physical-transport boundary the jesd204
// package's software model sits on top of: a lane's 4-octet-per-cycle
// datapath plus its SYNC~ request line, backed by either an in-process
// loopback or a real serial link.
package phy

import "github.com/samoyed-labs/jesd204core/internal/jesd204"

// D is the datapath width in octets, mirrored from jesd204.D so callers
// of this package don't need to import it just for the constant.
const D = jesd204.D

// LaneSink is the TX-side PHY boundary for one lane: one Send call per
// jesd cycle.
type LaneSink interface {
	Send(data [D]byte, ctrl [D]bool) error
}

// LaneSource is the RX-side PHY boundary for one lane: one Recv call
// per jesd cycle.
type LaneSource interface {
	Recv() (data [D]byte, ctrl [D]bool, err error)
}

// SyncSource reports the inbound SYNC~ request line for one lane.
type SyncSource interface {
	Sync() (asserted bool, err error)
}

// LoopbackPHY connects a CoreTX directly to a CoreRX within the same
// process, for development and tests that exercise the full link
// state machine without real hardware. It implements LaneSink,
// LaneSource and SyncSource for a single lane.
type LoopbackPHY struct {
	buf     *ElasticBuffer
	syncReq bool
}

// NewLoopbackPHY returns a LoopbackPHY with the given fixed-latency
// elastic buffer between its Send and Recv sides.
func NewLoopbackPHY(latency int) *LoopbackPHY {
	return &LoopbackPHY{buf: NewElasticBuffer(latency)}
}

// Send enqueues one cycle's octets/ctrl for later delivery via Recv.
func (p *LoopbackPHY) Send(data [D]byte, ctrl [D]bool) error {
	p.buf.Push(data, ctrl)
	return nil
}

// Recv dequeues the oldest buffered cycle, or an all-zero, all-data
// cycle if the buffer hasn't yet filled to its configured latency.
func (p *LoopbackPHY) Recv() (data [D]byte, ctrl [D]bool, err error) {
	data, ctrl = p.buf.Pop()
	return data, ctrl, nil
}

// SetSync drives the SYNC~ line this loopback reports via Sync.
func (p *LoopbackPHY) SetSync(asserted bool) { p.syncReq = asserted }

// Sync reports the currently latched SYNC~ request state.
func (p *LoopbackPHY) Sync() (bool, error) { return p.syncReq, nil }

// ElasticBuffer is a fixed-latency FIFO of lane cycles, used to model
// cable/SerDes propagation delay between a TX and RX PHY.
type ElasticBuffer struct {
	latency int
	data    [][D]byte
	ctrl    [][D]bool
}

// NewElasticBuffer returns an ElasticBuffer that holds back latency
// cycles' worth of data before Pop starts returning them.
func NewElasticBuffer(latency int) *ElasticBuffer {
	if latency < 0 {
		latency = 0
	}
	b := &ElasticBuffer{latency: latency}
	for i := 0; i < latency; i++ {
		b.data = append(b.data, [D]byte{})
		b.ctrl = append(b.ctrl, [D]bool{})
	}
	return b
}

// Push enqueues one cycle.
func (b *ElasticBuffer) Push(data [D]byte, ctrl [D]bool) {
	b.data = append(b.data, data)
	b.ctrl = append(b.ctrl, ctrl)
}

// Pop dequeues the oldest cycle. Safe to call every cycle from the
// moment the buffer is constructed: the first latency pops return the
// zeroed cycles it was pre-filled with, and a pop on an empty buffer
// also returns a zeroed cycle.
func (b *ElasticBuffer) Pop() (data [D]byte, ctrl [D]bool) {
	if len(b.data) == 0 {
		return [D]byte{}, [D]bool{}
	}
	data, ctrl = b.data[0], b.ctrl[0]
	b.data = b.data[1:]
	b.ctrl = b.ctrl[1:]
	return data, ctrl
}
