package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Dentalcow/cybermix/pkg/log"
	"github.com/Dentalcow/cybermix/pkg/wire"
)

// Framing constants.
const (
	// StartByte marks the beginning of every frame.
	StartByte = 0xC9

	// HeaderSize is start marker + length + type.
	HeaderSize = 3

	// ChecksumSize is the trailing CRC-8.
	ChecksumSize = 1

	// MaxPayloadSize is the maximum payload a frame can carry.
	MaxPayloadSize = 255

	// MaxFrameSize is the largest possible frame on the wire.
	MaxFrameSize = HeaderSize + MaxPayloadSize + ChecksumSize
)

// Framing errors.
var (
	// ErrFrameCorrupt indicates a checksum mismatch. The reader has already
	// resynchronized; the caller may simply read again.
	ErrFrameCorrupt = errors.New("frame checksum mismatch")

	// ErrPayloadTooLarge indicates the payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// readChunkSize is how much the reader pulls from the underlying stream at once.
const readChunkSize = 512

// FrameWriter writes checksummed frames to an underlying writer.
type FrameWriter struct {
	w  io.Writer
	mu sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, connID string) {
	fw.logger = logger
	fw.connID = connID
}

// WriteFrame writes one framed message.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(t wire.MsgType, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, HeaderSize+len(payload)+ChecksumSize)
	frame = append(frame, StartByte, byte(len(payload)), byte(t))
	frame = append(frame, payload...)
	frame = append(frame, Checksum(frame[1:]))

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if fw.logger != nil {
		fw.logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: fw.connID,
			Direction:    log.DirectionOut,
			Layer:        log.LayerTransport,
			Category:     log.CategoryMessage,
			Frame:        &log.FrameEvent{Size: len(frame), Data: payload},
		})
	}

	return nil
}

// FrameReader reads checksummed frames from an underlying reader.
// It buffers input internally so that resynchronization after a corrupt
// frame never consumes bytes of the following frame.
type FrameReader struct {
	r   io.Reader
	buf []byte

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, connID string) {
	fr.logger = logger
	fr.connID = connID
}

// ReadFrame reads the next frame and returns its type and payload.
//
// On a checksum mismatch it returns ErrFrameCorrupt after discarding the bad
// start marker; the next call rescans the buffered bytes for the following
// marker, so a corrupted length byte cannot swallow a healthy frame.
func (fr *FrameReader) ReadFrame() (wire.MsgType, []byte, error) {
	for {
		// Discard noise before the next start marker.
		start := -1
		for i, b := range fr.buf {
			if b == StartByte {
				start = i
				break
			}
		}
		if start < 0 {
			fr.buf = fr.buf[:0]
			if err := fr.fill(); err != nil {
				return 0, nil, err
			}
			continue
		}
		if start > 0 {
			fr.buf = fr.buf[start:]
		}

		// Need the full header to know the frame size.
		for len(fr.buf) < HeaderSize {
			if err := fr.fill(); err != nil {
				return 0, nil, err
			}
		}

		length := int(fr.buf[1])
		total := HeaderSize + length + ChecksumSize
		for len(fr.buf) < total {
			if err := fr.fill(); err != nil {
				return 0, nil, err
			}
		}

		if Checksum(fr.buf[1:total-1]) != fr.buf[total-1] {
			// Drop only the marker; the real next frame may start anywhere
			// inside the bytes a corrupted length claimed.
			fr.buf = fr.buf[1:]
			fr.logError("checksum mismatch, resynchronizing")
			return 0, nil, ErrFrameCorrupt
		}

		t := wire.MsgType(fr.buf[2])
		payload := make([]byte, length)
		copy(payload, fr.buf[HeaderSize:total-1])
		fr.buf = fr.buf[total:]

		if fr.logger != nil {
			fr.logger.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: fr.connID,
				Direction:    log.DirectionIn,
				Layer:        log.LayerTransport,
				Category:     log.CategoryMessage,
				Frame:        &log.FrameEvent{Size: total, Data: payload},
			})
		}

		return t, payload, nil
	}
}

// fill reads more bytes from the underlying stream into the buffer.
func (fr *FrameReader) fill() error {
	chunk := make([]byte, readChunkSize)
	n, err := fr.r.Read(chunk)
	if n > 0 {
		fr.buf = append(fr.buf, chunk[:n]...)
		return nil
	}
	if err != nil {
		return err
	}
	return io.ErrNoProgress
}

// logError emits a transport-layer error event if a logger is configured.
func (fr *FrameReader) logError(msg string) {
	if fr.logger == nil {
		return
	}
	fr.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: fr.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		Error:        &log.ErrorEventData{Layer: log.LayerTransport, Message: msg, Context: "read frame"},
	})
}

// Framer combines frame reading and writing over one stream.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, connID string) {
	f.FrameReader.SetLogger(logger, connID)
	f.FrameWriter.SetLogger(logger, connID)
}

// WriteMessage encodes a typed payload and writes it as one frame.
func (f *Framer) WriteMessage(payload any) error {
	t, ok := wire.TypeOf(payload)
	if !ok {
		return fmt.Errorf("not a wire message: %T", payload)
	}
	data, err := wire.Encode(t, payload)
	if err != nil {
		return err
	}
	return f.WriteFrame(t, data)
}
