// internal/transport/simulator.go
package transport

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/tamzrod/plc-bridge/internal/rtu"
)

// Simulator is an in-memory Modbus RTU slave standing in for a real
// controller. It decodes request frames with the same codec the
// communicator uses, serves deterministic synthetic process data, and
// honors single-coil/single-register writes. Data patterns are seeded
// by a monotonically increasing request counter, so a given request
// sequence always produces the same values.
type Simulator struct {
	slave   uint8
	open    bool
	counter uint64
	pending []byte

	inputs    []bool
	coils     []bool
	registers []uint16

	// Addresses written through FC5/FC6 stop following the synthetic
	// pattern and keep their written value.
	heldCoils map[int]bool
	heldRegs  map[int]bool
}

// NewSimulator creates a simulated slave with the reference geometry:
// 16 discrete inputs, 16 coils, 10 holding registers.
func NewSimulator(slave uint8) *Simulator {
	return NewSimulatorWithGeometry(slave, 16, 16, 10)
}

// NewSimulatorWithGeometry creates a simulated slave sized to the
// configured read geometry, so every poll group the communicator asks
// for exists in the process image. Non-positive counts fall back to
// the reference geometry.
func NewSimulatorWithGeometry(slave uint8, inputs, coils, registers int) *Simulator {
	if inputs <= 0 {
		inputs = 16
	}
	if coils <= 0 {
		coils = 16
	}
	if registers <= 0 {
		registers = 10
	}
	return &Simulator{
		slave:     slave,
		inputs:    make([]bool, inputs),
		coils:     make([]bool, coils),
		registers: make([]uint16, registers),
		heldCoils: make(map[int]bool),
		heldRegs:  make(map[int]bool),
	}
}

func (s *Simulator) Open() error  { s.open = true; return nil }
func (s *Simulator) Close() error { s.open = false; return nil }
func (s *Simulator) Kind() string { return "simulation" }

// Send decodes one request frame and queues the matching response. A
// malformed frame or one addressed to another slave queues nothing,
// which surfaces as ErrNoData on the next Receive, just like a silent
// line.
func (s *Simulator) Send(frame []byte) error {
	s.pending = nil
	if !s.open || len(frame) != 8 || !rtu.VerifyCRC(frame) {
		return nil
	}
	if frame[0] != s.slave {
		return nil
	}

	fn := frame[1]
	start := binary.BigEndian.Uint16(frame[2:4])
	arg := binary.BigEndian.Uint16(frame[4:6])

	switch fn {
	case rtu.FnReadInputs:
		s.counter++
		s.regenerate()
		s.pending = s.readBits(fn, s.inputs, start, arg)
	case rtu.FnReadCoils:
		s.regenerate()
		s.pending = s.readBits(fn, s.coils, start, arg)
	case rtu.FnReadHolding:
		s.regenerate()
		s.pending = s.readRegisters(start, arg)
	case rtu.FnWriteCoil:
		addr := int(start)
		if addr < len(s.coils) {
			s.coils[addr] = arg == 0xFF00
			s.heldCoils[addr] = true
			s.pending = append([]byte(nil), frame...)
		}
	case rtu.FnWriteRegister:
		addr := int(start)
		if addr < len(s.registers) {
			s.registers[addr] = arg
			s.heldRegs[addr] = true
			s.pending = append([]byte(nil), frame...)
		}
	}
	return nil
}

// Receive hands back the queued response, if any.
func (s *Simulator) Receive(expected int) ([]byte, error) {
	if s.pending == nil {
		return nil, ErrNoData
	}
	resp := s.pending
	s.pending = nil
	if len(resp) > expected {
		resp = resp[:expected]
	}
	return resp, nil
}

func (s *Simulator) readBits(fn uint8, src []bool, start, count uint16) []byte {
	if int(start)+int(count) > len(src) {
		return nil
	}
	payload := rtu.PackBits(src[start : start+count])
	return rtu.BuildReadResponse(s.slave, fn, payload)
}

func (s *Simulator) readRegisters(start, count uint16) []byte {
	if int(start)+int(count) > len(s.registers) {
		return nil
	}
	payload := rtu.PackRegisters(s.registers[start : start+count])
	return rtu.BuildReadResponse(s.slave, rtu.FnReadHolding, payload)
}

// regenerate refreshes the synthetic process image from the request
// counter: a few slow square waves, bounded pseudo-random activity, a
// cycle counter, a sine "temperature", and a sawtooth, mirroring a
// small demo machine.
func (s *Simulator) regenerate() {
	n := s.counter
	rng := rand.New(rand.NewSource(int64(n)))

	for i := range s.inputs {
		switch {
		case i < 4:
			s.inputs[i] = (n/uint64(i+2))%2 == 0
		case i < 8:
			s.inputs[i] = rng.Float64() > 0.7
		default:
			s.inputs[i] = rng.Float64() > 0.9
		}
	}

	for i := range s.coils {
		if s.heldCoils[i] {
			continue
		}
		switch {
		case i < 4:
			s.coils[i] = s.inputs[i]
		case i < 8:
			s.coils[i] = (n/uint64(i-2))%2 == 0
		default:
			s.coils[i] = rng.Float64() > 0.8
		}
	}

	for i := range s.registers {
		if s.heldRegs[i] {
			continue
		}
		switch i {
		case 0:
			s.registers[i] = uint16(n % 1000)
		case 1:
			s.registers[i] = uint16(200 + 50*math.Sin(float64(n)/10))
		case 2:
			s.registers[i] = uint16(100 + rng.Intn(400))
		case 3:
			s.registers[i] = uint16((n * 5) % 1000)
		default:
			s.registers[i] = uint16(rng.Intn(65536))
		}
	}
}
