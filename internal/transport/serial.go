// internal/transport/serial.go
package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/serial"
)

// SerialConfig holds the RTU line parameters.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

// Serial is the real RTU transport over a serial line.
type Serial struct {
	cfg  SerialConfig
	port serial.Port
}

// NewSerial creates an unopened serial transport.
func NewSerial(cfg SerialConfig) *Serial {
	return &Serial{cfg: cfg}
}

func (s *Serial) Open() error {
	if s.cfg.Port == "" {
		return errors.New("serial transport: port required")
	}
	port, err := serial.Open(&serial.Config{
		Address:  s.cfg.Port,
		BaudRate: s.cfg.BaudRate,
		DataBits: s.cfg.DataBits,
		StopBits: s.cfg.StopBits,
		Parity:   s.cfg.Parity,
		Timeout:  s.cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("serial transport: open %s: %w", s.cfg.Port, err)
	}
	s.port = port
	return nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) Send(frame []byte) error {
	if s.port == nil {
		return errors.New("serial transport: not open")
	}
	for len(frame) > 0 {
		n, err := s.port.Write(frame)
		if err != nil {
			return fmt.Errorf("serial transport: write: %w", err)
		}
		frame = frame[n:]
	}
	return nil
}

// Receive accumulates up to expected bytes, giving up at the line's
// read timeout. Whatever arrived by then is returned; an empty line
// yields ErrNoData.
func (s *Serial) Receive(expected int) ([]byte, error) {
	if s.port == nil {
		return nil, errors.New("serial transport: not open")
	}
	buf := make([]byte, expected)
	total := 0
	deadline := time.Now().Add(s.cfg.Timeout)
	for total < expected {
		n, err := s.port.Read(buf[total:])
		total += n
		if err != nil {
			break
		}
		if time.Now().After(deadline) {
			break
		}
	}
	if total == 0 {
		return nil, ErrNoData
	}
	return buf[:total], nil
}

func (s *Serial) Kind() string { return "rtu" }
