package jesd204

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAlignInserterMarksBoundaryOctets(t *testing.T) {
	var inserter = NewAlignInserter()

	var w LaneWord
	w.Data = [D]byte{CtrlA, 0x01, CtrlF, 0x02}
	w.MultiframeLast = [D]bool{true, false, false, false}
	w.FrameLast = [D]bool{false, false, true, false}

	var out = inserter.Step(w)
	assert.True(t, out.Ctrl[0], "multiframe_last octet equal to A must be marked ctrl")
	assert.False(t, out.Ctrl[1])
	assert.True(t, out.Ctrl[2], "frame_last octet equal to F must be marked ctrl")
	assert.False(t, out.Ctrl[3])
}

func TestAlignInserterLeavesNonMatchingOctetsAlone(t *testing.T) {
	var inserter = NewAlignInserter()

	var w LaneWord
	w.Data = [D]byte{0x01, 0x02, 0x03, 0x04}
	w.MultiframeLast = [D]bool{true, true, true, true}
	w.FrameLast = [D]bool{true, true, true, true}

	var out = inserter.Step(w)
	assert.Equal(t, [D]bool{false, false, false, false}, out.Ctrl)
}

func TestAlignInsertReplaceRoundTripProperty(t *testing.T) {
	// For any octet stream out of the framer, replacing after inserting
	// must give back the identical word: under scrambled operation the
	// A/F characters carry the same octet value as the data they mark.
	var s, err = NewSettings(4, 4, 2, 1, 16, 16, 32, 0, 0, 0)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		var fr, frErr = NewFramer(s)
		require.NoError(t, frErr)
		var inserter = NewAlignInserter()
		var replacer = NewAlignReplacer()

		var n = rapid.IntRange(1, 64).Draw(t, "n")
		for i := 0; i < n; i++ {
			var data [D]byte
			for j := range data {
				data[j] = byte(rapid.IntRange(0, 255).Draw(t, "octet"))
			}
			var framed = fr.Step(data)
			var restored = replacer.Step(inserter.Step(framed))
			require.Equal(t, framed.Data, restored.Data)
			require.Equal(t, [D]bool{}, restored.Ctrl)
		}
	})
}

func TestAlignReplacerClearsCtrl(t *testing.T) {
	var replacer = NewAlignReplacer()

	var w LaneWord
	w.Data = [D]byte{CtrlA, 0x01, CtrlF, 0x02}
	w.Ctrl = [D]bool{true, false, true, false}

	var out = replacer.Step(w)
	assert.Equal(t, [D]bool{false, false, false, false}, out.Ctrl)
	assert.Equal(t, w.Data, out.Data, "data octets pass through unchanged")
}
