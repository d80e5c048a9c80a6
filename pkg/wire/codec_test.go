package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFaderMoved(t *testing.T) {
	data, err := Encode(MsgFaderMoved, &FaderMoved{Channel: 2, Value: 0.75})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := Decode(MsgFaderMoved, data)
	require.NoError(t, err)

	fm, ok := decoded.(*FaderMoved)
	require.True(t, ok)
	assert.Equal(t, uint8(2), fm.Channel)
	assert.InDelta(t, 0.75, fm.Value, 1e-9)
}

func TestEncodeDecodeRenderDisplay(t *testing.T) {
	data, err := Encode(MsgRenderDisplay, &RenderDisplay{Channel: 4, Line1: "spotify", Line2: "42%"})
	require.NoError(t, err)

	decoded, err := Decode(MsgRenderDisplay, data)
	require.NoError(t, err)

	rd := decoded.(*RenderDisplay)
	assert.Equal(t, uint8(4), rd.Channel)
	assert.Equal(t, "spotify", rd.Line1)
	assert.Equal(t, "42%", rd.Line2)
}

func TestEncodeDecodeHello(t *testing.T) {
	data, err := Encode(MsgHello, &Hello{Protocol: ProtocolVersion, Channels: 5, Pages: 3})
	require.NoError(t, err)

	decoded, err := Decode(MsgHello, data)
	require.NoError(t, err)

	h := decoded.(*Hello)
	assert.Equal(t, uint8(ProtocolVersion), h.Protocol)
	assert.Equal(t, uint8(5), h.Channels)
	assert.Equal(t, uint8(3), h.Pages)
}

func TestDecodeEmptyPayloadMessages(t *testing.T) {
	for _, mt := range []MsgType{MsgHeartbeat, MsgButtonPressed} {
		decoded, err := Decode(mt, nil)
		require.NoError(t, err, "type %s", mt)
		require.NotNil(t, decoded)
	}
}

func TestEncodeRejectsInvalidChannel(t *testing.T) {
	_, err := Encode(MsgSetVolume, &SetVolume{Channel: 5, Value: 0.5})
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestEncodeRejectsOutOfRangeValue(t *testing.T) {
	_, err := Encode(MsgFaderMoved, &FaderMoved{Channel: 0, Value: 1.5})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Encode(MsgSetLEDBar, &SetLEDBar{Level: -0.1})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestEncodeRejectsLongDisplayLine(t *testing.T) {
	_, err := Encode(MsgRenderDisplay, &RenderDisplay{
		Channel: 0,
		Line1:   "this line is much longer than sixteen bytes",
	})
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(MsgSetVolume, []byte{0xFF, 0xFF, 0xFF})
	assert.Error(t, err)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode(MsgType(0x7F), nil)
	assert.Error(t, err)
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		payload any
		want    MsgType
	}{
		{&FaderMoved{}, MsgFaderMoved},
		{&ButtonPressed{}, MsgButtonPressed},
		{&PageChanged{}, MsgPageChanged},
		{&SetVolume{}, MsgSetVolume},
		{&RenderDisplay{}, MsgRenderDisplay},
		{&SetLED{}, MsgSetLED},
		{&SetLEDBar{}, MsgSetLEDBar},
		{&Heartbeat{}, MsgHeartbeat},
		{&Hello{}, MsgHello},
	}
	for _, tt := range tests {
		got, ok := TypeOf(tt.payload)
		require.True(t, ok)
		assert.Equal(t, tt.want, got)
	}

	_, ok := TypeOf("not a message")
	assert.False(t, ok)
}

func TestMsgTypeString(t *testing.T) {
	assert.Equal(t, "FADER_MOVED", MsgFaderMoved.String())
	assert.Equal(t, "SET_VOLUME", MsgSetVolume.String())
	assert.Contains(t, MsgType(0x7F).String(), "UNKNOWN")
}
