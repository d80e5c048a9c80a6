package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate is the serial speed the firmware uses.
const DefaultBaudRate = 115200

// ErrNoDevice indicates that no CyberMix device was found on any serial port.
var ErrNoDevice = errors.New("no device found on any serial port")

// productMatches are USB product-string fragments that identify the device.
// The board enumerates as a XIAO RP2040 CDC serial port.
var productMatches = []string{"XIAO", "USB Serial", "RP2040"}

// OpenSerial opens a serial port in 8N1 mode at the given baud rate.
func OpenSerial(portName string, baudRate int) (io.ReadWriteCloser, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", portName, err)
	}
	return port, nil
}

// DetectPort scans serial ports for the CyberMix device and returns the
// port name of the first match.
func DetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		for _, m := range productMatches {
			if strings.Contains(p.Product, m) {
				return p.Name, nil
			}
		}
	}
	return "", ErrNoDevice
}
