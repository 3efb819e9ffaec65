package phy

/*------------------------------------------------------------------
 *
 * Purpose:	Serial-port-backed PHY, hiding operating system
 *		differences the same way a raw UART link to an FPGA
 *		bit-bang bridge would need to.
 *
 * Description:	One lane's octets/ctrl are framed on the wire as
 *		D (data, ctrl-flag) pairs per cycle: each octet is
 *		followed by a single byte, 0x01 for a control character
 *		and 0x00 for data. This is a convenience framing for a
 *		bit-bang bridge, not an 8b/10b encoding.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"

	"github.com/pkg/term"
)

// SerialPHY is a LaneSink and LaneSource backed by a real serial port.
type SerialPHY struct {
	port *term.Term
}

// OpenSerialPHY opens devicename at baud and returns a SerialPHY ready
// for Send/Recv. baud of 0 leaves the port's current speed alone.
func OpenSerialPHY(devicename string, baud int) (*SerialPHY, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("phy: open %s: %w", devicename, err)
	}

	switch baud {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600:
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("phy: set speed %d on %s: %w", baud, devicename, err)
		}
	default:
		t.Close()
		return nil, fmt.Errorf("phy: unsupported baud rate %d", baud)
	}

	return &SerialPHY{port: t}, nil
}

// Close releases the underlying serial port.
func (p *SerialPHY) Close() error {
	return p.port.Close()
}

// Send writes one cycle's D (octet, ctrl-flag) pairs to the port.
func (p *SerialPHY) Send(data [D]byte, ctrl [D]bool) error {
	buf := make([]byte, 0, 2*D)
	for i := 0; i < D; i++ {
		buf = append(buf, data[i], boolByte(ctrl[i]))
	}
	n, err := p.port.Write(buf)
	if err != nil {
		return fmt.Errorf("phy: write: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("phy: short write: wrote %d of %d bytes", n, len(buf))
	}
	return nil
}

// Recv reads one cycle's D (octet, ctrl-flag) pairs from the port,
// blocking until all 2*D bytes have arrived.
func (p *SerialPHY) Recv() (data [D]byte, ctrl [D]bool, err error) {
	buf := make([]byte, 2*D)
	if err := p.readFull(buf); err != nil {
		return data, ctrl, fmt.Errorf("phy: read: %w", err)
	}
	for i := 0; i < D; i++ {
		data[i] = buf[2*i]
		ctrl[i] = buf[2*i+1] != 0
	}
	return data, ctrl, nil
}

func (p *SerialPHY) readFull(buf []byte) error {
	for got := 0; got < len(buf); {
		n, err := p.port.Read(buf[got:])
		if err != nil {
			return err
		}
		got += n
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
