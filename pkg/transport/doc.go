// Package transport implements framing and link liveness for the CyberMix
// serial protocol.
//
// The serial link is a raw byte stream with no inherent framing, so every
// message travels in a checksummed frame:
//
//	+------+--------+------+----------------+-------+
//	| 0xC9 | length | type | payload (CBOR) | CRC-8 |
//	+------+--------+------+----------------+-------+
//	  1B      1B      1B      0..255 B         1B
//
// The CRC-8 (polynomial 0x07, initial value 0x00) covers length, type and
// payload. A receiver that sees a checksum mismatch discards the frame and
// resynchronizes by scanning forward to the next 0xC9 start marker without
// consuming bytes belonging to the following frame.
//
// LinkMonitor sends wire.Heartbeat at a fixed interval and declares the link
// lost when no heartbeat arrives for MissLimit intervals.
package transport
