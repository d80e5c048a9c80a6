package transport

import (
	"fmt"
	"io"
	"net"
)

// Dial connects to a simulated device listening on a TCP address.
// The returned stream carries the same framing as the serial link.
func Dial(addr string) (io.ReadWriteCloser, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return conn, nil
}

// Listen accepts a single connection on addr and returns it.
// Used by the simulated device binary, which serves one host at a time.
func Listen(addr string) (io.ReadWriteCloser, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	defer ln.Close()

	conn, err := ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("failed to accept connection: %w", err)
	}
	return conn, nil
}
