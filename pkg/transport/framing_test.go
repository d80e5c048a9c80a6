package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/Dentalcow/cybermix/pkg/wire"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		msgType wire.MsgType
		payload []byte
	}{
		{
			name:    "empty payload",
			msgType: wire.MsgHeartbeat,
			payload: nil,
		},
		{
			name:    "small payload",
			msgType: wire.MsgFaderMoved,
			payload: []byte{0xA2, 0x01, 0x02, 0x02, 0x00},
		},
		{
			name:    "max size payload",
			msgType: wire.MsgRenderDisplay,
			payload: bytes.Repeat([]byte{0x5A}, MaxPayloadSize),
		},
		{
			name:    "payload containing start marker bytes",
			msgType: wire.MsgSetLED,
			payload: []byte{StartByte, StartByte, 0x00, StartByte},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			writer := NewFrameWriter(buf)
			if err := writer.WriteFrame(tt.msgType, tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}

			expectedSize := HeaderSize + len(tt.payload) + ChecksumSize
			if buf.Len() != expectedSize {
				t.Errorf("frame size = %d, want %d", buf.Len(), expectedSize)
			}

			reader := NewFrameReader(buf)
			gotType, gotPayload, err := reader.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if gotType != tt.msgType {
				t.Errorf("type = %v, want %v", gotType, tt.msgType)
			}
			if !bytes.Equal(gotPayload, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d bytes", len(gotPayload), len(tt.payload))
			}
		})
	}
}

func TestFrameWriterPayloadTooLarge(t *testing.T) {
	writer := NewFrameWriter(new(bytes.Buffer))
	err := writer.WriteFrame(wire.MsgRenderDisplay, bytes.Repeat([]byte{0}, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestFrameReaderSkipsLeadingNoise(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.Write([]byte{0x00, 0x13, 0x37, 0xFF}) // line noise before the frame

	writer := NewFrameWriter(buf)
	if err := writer.WriteFrame(wire.MsgButtonPressed, nil); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	reader := NewFrameReader(buf)
	gotType, _, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if gotType != wire.MsgButtonPressed {
		t.Errorf("type = %v, want %v", gotType, wire.MsgButtonPressed)
	}
}

func TestFrameReaderCorruptChecksumResyncs(t *testing.T) {
	good := new(bytes.Buffer)
	writer := NewFrameWriter(good)
	if err := writer.WriteFrame(wire.MsgPageChanged, []byte{0xA1, 0x01, 0x02}); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	// First frame with a flipped payload byte, then the intact frame.
	bad := make([]byte, good.Len())
	copy(bad, good.Bytes())
	bad[HeaderSize] ^= 0xFF

	stream := bytes.NewBuffer(append(bad, good.Bytes()...))
	reader := NewFrameReader(stream)

	_, _, err := reader.ReadFrame()
	if !errors.Is(err, ErrFrameCorrupt) {
		t.Fatalf("expected ErrFrameCorrupt, got %v", err)
	}

	// The intact frame must still be readable.
	gotType, gotPayload, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame after resync failed: %v", err)
	}
	if gotType != wire.MsgPageChanged {
		t.Errorf("type = %v, want %v", gotType, wire.MsgPageChanged)
	}
	if !bytes.Equal(gotPayload, []byte{0xA1, 0x01, 0x02}) {
		t.Errorf("payload mismatch after resync: % X", gotPayload)
	}
}

func TestFrameReaderCorruptLengthDoesNotSwallowNextFrame(t *testing.T) {
	good := new(bytes.Buffer)
	writer := NewFrameWriter(good)
	if err := writer.WriteFrame(wire.MsgSetVolume, []byte{0xA2, 0x01, 0x00, 0x02, 0x01}); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	// Corrupt the length byte of the first copy so it claims a frame large
	// enough to cover the second copy entirely.
	bad := make([]byte, good.Len())
	copy(bad, good.Bytes())
	bad[1] = 200

	stream := bytes.NewBuffer(append(bad, good.Bytes()...))
	// Pad so the reader can satisfy the bogus claimed length.
	stream.Write(bytes.Repeat([]byte{0x00}, 256))

	reader := NewFrameReader(stream)

	var sawGood bool
	for i := 0; i < 10; i++ {
		gotType, _, err := reader.ReadFrame()
		if errors.Is(err, ErrFrameCorrupt) {
			continue
		}
		if err != nil {
			break
		}
		if gotType == wire.MsgSetVolume {
			sawGood = true
			break
		}
	}
	if !sawGood {
		t.Error("healthy frame was swallowed by corrupted length byte")
	}
}

func TestFrameReaderEOF(t *testing.T) {
	reader := NewFrameReader(bytes.NewBuffer(nil))
	_, _, err := reader.ReadFrame()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFramerWriteMessage(t *testing.T) {
	buf := new(bytes.Buffer)
	framer := NewFramer(buf)

	if err := framer.WriteMessage(&wire.FaderMoved{Channel: 1, Value: 0.5}); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	gotType, payload, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if gotType != wire.MsgFaderMoved {
		t.Fatalf("type = %v, want %v", gotType, wire.MsgFaderMoved)
	}

	decoded, err := wire.Decode(gotType, payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	fm := decoded.(*wire.FaderMoved)
	if fm.Channel != 1 || fm.Value != 0.5 {
		t.Errorf("decoded %+v, want channel 1 value 0.5", fm)
	}
}

func TestFramerWriteMessageRejectsNonMessage(t *testing.T) {
	framer := NewFramer(new(bytes.Buffer))
	if err := framer.WriteMessage(42); err == nil {
		t.Error("expected error for non-message payload")
	}
}

func TestChecksumKnownValues(t *testing.T) {
	// CRC-8 poly 0x07 of "123456789" is the standard check value 0xF4.
	if got := Checksum([]byte("123456789")); got != 0xF4 {
		t.Errorf("Checksum = 0x%02X, want 0xF4", got)
	}
	if got := Checksum(nil); got != 0x00 {
		t.Errorf("Checksum(nil) = 0x%02X, want 0x00", got)
	}
}
