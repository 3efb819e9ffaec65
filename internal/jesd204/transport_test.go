package jesd204

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func fourConverterFourLaneSettings(t require.TestingT) *JesdSettings {
	// L=4, M=4 (1 converter per lane), S=1, Np=16: F = m*s*np/(8*l) = 2.
	var s, err = NewSettings(4, 4, 2, 1, 16, 16, 32, 0, 0, 0)
	require.NoError(t, err)
	return s
}

func TestTransportTXMapsOneConverterPerLane(t *testing.T) {
	var s = fourConverterFourLaneSettings(t)
	var tx, err = NewTransportTX(s)
	require.NoError(t, err)

	var samples = [][]uint32{{0xABCD}, {0x1234}, {0x0F0F}, {0xFFFF}}
	var lanes = tx.Step(samples)

	require.Len(t, lanes, 4)
	for l := 0; l < 4; l++ {
		require.Len(t, lanes[l], 2)
	}
	// converter 0's 16-bit sample 0xABCD splits into nibbles A,B,C,D,
	// packed as octets 0xAB, 0xCD.
	assert.Equal(t, []byte{0xAB, 0xCD}, lanes[0])
	assert.Equal(t, []byte{0x12, 0x34}, lanes[1])
	assert.Equal(t, []byte{0x0F, 0x0F}, lanes[2])
	assert.Equal(t, []byte{0xFF, 0xFF}, lanes[3])
}

func TestTransportRoundTrip(t *testing.T) {
	var s = fourConverterFourLaneSettings(t)
	var tx, err = NewTransportTX(s)
	require.NoError(t, err)
	var rx, rxErr = NewTransportRX(s)
	require.NoError(t, rxErr)

	var samples = [][]uint32{{0xABCD}, {0x1234}, {0x0F0F}, {0xFFFF}}
	var lanes = tx.Step(samples)
	var recovered = rx.Step(lanes)

	assert.Equal(t, samples, recovered)
}

func TestTransportRoundTripProperty(t *testing.T) {
	var s = fourConverterFourLaneSettings(t)
	var tx, err = NewTransportTX(s)
	require.NoError(t, err)
	var rx, rxErr = NewTransportRX(s)
	require.NoError(t, rxErr)

	rapid.Check(t, func(t *rapid.T) {
		var samples = make([][]uint32, s.M)
		for c := range samples {
			samples[c] = []uint32{uint32(rapid.IntRange(0, 0xFFFF).Draw(t, "sample"))}
		}
		var lanes = tx.Step(samples)
		var recovered = rx.Step(lanes)
		require.Equal(t, samples, recovered)
	})
}

func TestTransportRampRoundTripAcrossFrames(t *testing.T) {
	// Sixteen frames of the c*256+k ramp: converter c's samples count
	// up from c*256, one per frame. Each frame must decode back to
	// exactly the samples that were fed in, frame after frame.
	var s = fourConverterFourLaneSettings(t)
	var tx, err = NewTransportTX(s)
	require.NoError(t, err)
	var rx, rxErr = NewTransportRX(s)
	require.NoError(t, rxErr)

	for k := 0; k < 16; k++ {
		var samples = make([][]uint32, s.M)
		for c := range samples {
			samples[c] = []uint32{uint32(c*256 + k)}
		}
		var recovered = rx.Step(tx.Step(samples))
		require.Equal(t, samples, recovered, "frame %d", k)
	}
}

func TestTransportTXRejectsMismatchedFrameOctets(t *testing.T) {
	// Total frame octets (m*s*np/8 = 4*1*16/8 = 8) must equal l*f; here
	// l*f = 3*1 = 3, which doesn't divide evenly.
	var s = &JesdSettings{L: 3, M: 4, F: 1, S: 1, Np: 16, NibblesPerWord: 4}
	var _, err = NewTransportTX(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestTransportTXSlicesLanesContiguouslyAcrossConverters(t *testing.T) {
	// L=2, M=4: each lane carries two converters' worth of octets, not
	// every other converter. This is the case that a round-robin
	// converter-to-lane assignment would get wrong but a contiguous
	// slice of the converter-major frame gets right.
	var s, err = NewSettings(2, 4, 2, 1, 8, 8, 10, 0, 0, 0)
	require.NoError(t, err)
	var tx, txErr = NewTransportTX(s)
	require.NoError(t, txErr)

	var samples = [][]uint32{{0xA1}, {0xB2}, {0xC3}, {0xD4}}
	var lanes = tx.Step(samples)

	require.Len(t, lanes, 2)
	// converter-major frame is [0xA1, 0xB2, 0xC3, 0xD4]; lane 0 gets the
	// first two octets (converters 0,1), lane 1 the last two
	// (converters 2,3) - not {conv0,conv2} / {conv1,conv3}.
	assert.Equal(t, []byte{0xA1, 0xB2}, lanes[0])
	assert.Equal(t, []byte{0xC3, 0xD4}, lanes[1])

	var rx, rxErr = NewTransportRX(s)
	require.NoError(t, rxErr)
	assert.Equal(t, samples, rx.Step(lanes))
}
