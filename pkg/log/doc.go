// Package log defines structured protocol event logging for CyberMix.
//
// Transport, connection and coordinator code emit Event values describing
// frames, decoded messages, state changes and errors. Applications plug in
// a Logger implementation to capture them; SlogAdapter bridges events into
// a standard log/slog logger for console output.
package log
