package tunnel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	frames := []*Frame{
		{Type: TypeServiceIDs, StreamID: 23, Ignorable: true},
		{Type: TypeData, StreamID: 25, Payload: []byte{1, 2}},
		{Type: TypeStreamStart, StreamID: 7},
	}

	var buf bytes.Buffer
	for _, f := range frames {
		require.NoError(t, EncodeFrame(&buf, f))
	}

	decoded, err := DecodeFrames(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded, len(frames))
	for i, f := range frames {
		assert.Equal(t, f, decoded[i], "frame %d", i)
	}
}

func TestDecodeFramesStopsAtTruncatedTrailer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, &Frame{Type: TypeData, StreamID: 1, Payload: []byte("ok")}))

	// A trailer that claims more bytes than remain.
	buf.Write([]byte{0xFF, 0xFF, 0x01, 0x02, 0x03})

	decoded, err := DecodeFrames(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, []byte("ok"), decoded[0].Payload)
}

func TestDecodeFramesEmptyAndShortInput(t *testing.T) {
	decoded, err := DecodeFrames(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)

	decoded, err = DecodeFrames([]byte{0x00})
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeFramesRejectsMalformedProto(t *testing.T) {
	// Length prefix of 3 followed by garbage field bytes.
	_, err := DecodeFrames([]byte{0x00, 0x03, 0xFF, 0xFF, 0xFF})
	require.Error(t, err)
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	// A frame carrying an extra string field (tag 5, e.g. service_id).
	raw := (&Frame{Type: TypeData, StreamID: 3, Payload: []byte("x")}).marshal()
	raw = append(raw, 0x2A, 0x03, 'S', 'S', 'H') // field 5, bytes, "SSH"

	f, err := unmarshalFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeData, f.Type)
	assert.Equal(t, int32(3), f.StreamID)
	assert.Equal(t, []byte("x"), f.Payload)
}

func TestNegativeStreamIDRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, &Frame{Type: TypeData, StreamID: -5}))
	decoded, err := DecodeFrames(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, int32(-5), decoded[0].StreamID)
}

func TestEncodeFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeFrame(&buf, &Frame{Type: TypeData, Payload: make([]byte, 70_000)})
	assert.ErrorIs(t, err, ErrEncodedLength)
}
