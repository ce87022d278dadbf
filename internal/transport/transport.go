// internal/transport/transport.go
package transport

import "errors"

// ErrNoData is returned by Receive when nothing arrived within the
// read timeout.
var ErrNoData = errors.New("transport: no data within timeout")

// Transport is a half-duplex byte stream to the controller. Send
// writes one request frame; Receive returns the bytes that arrive
// within the read timeout, up to expected. A short return with a nil
// error is possible and is resolved by the frame parser.
//
// Implementations are not safe for concurrent use. The communicator
// serializes exchanges behind its transport lock.
type Transport interface {
	Open() error
	Close() error
	Send(frame []byte) error
	Receive(expected int) ([]byte, error)

	// Kind identifies the transport variant ("rtu" or "simulation")
	// for the snapshot's system info.
	Kind() string
}
