// internal/transport/simulator_test.go
package transport

import (
	"testing"

	"github.com/tamzrod/plc-bridge/internal/rtu"
)

func exchange(t *testing.T, s *Simulator, req []byte, expected int) []byte {
	t.Helper()
	if err := s.Send(req); err != nil {
		t.Fatalf("Send: %v", err)
	}
	resp, err := s.Receive(expected)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	return resp
}

func TestSimulator_ServesAllGroups(t *testing.T) {
	s := NewSimulator(1)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	resp := exchange(t, s, rtu.BuildRequest(1, rtu.FnReadInputs, 0, 16), rtu.BitFrameLen(16))
	if bits := rtu.ParseBits(1, rtu.FnReadInputs, 16, resp); len(bits) != 16 {
		t.Fatalf("inputs decode failed: %v", bits)
	}

	resp = exchange(t, s, rtu.BuildRequest(1, rtu.FnReadCoils, 0, 16), rtu.BitFrameLen(16))
	if bits := rtu.ParseBits(1, rtu.FnReadCoils, 16, resp); len(bits) != 16 {
		t.Fatalf("coils decode failed: %v", bits)
	}

	resp = exchange(t, s, rtu.BuildRequest(1, rtu.FnReadHolding, 0, 10), rtu.RegisterFrameLen(10))
	if regs := rtu.ParseRegisters(1, 10, resp); len(regs) != 10 {
		t.Fatalf("registers decode failed: %v", regs)
	}
}

func TestSimulator_CustomGeometry(t *testing.T) {
	// The process image follows the configured read geometry, so reads
	// larger than the reference 16/16/10 still get full responses.
	s := NewSimulatorWithGeometry(1, 100, 50, 125)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	resp := exchange(t, s, rtu.BuildRequest(1, rtu.FnReadInputs, 0, 100), rtu.BitFrameLen(100))
	if bits := rtu.ParseBits(1, rtu.FnReadInputs, 100, resp); len(bits) != 100 {
		t.Fatalf("inputs decode failed: %v", bits)
	}

	resp = exchange(t, s, rtu.BuildRequest(1, rtu.FnReadCoils, 0, 50), rtu.BitFrameLen(50))
	if bits := rtu.ParseBits(1, rtu.FnReadCoils, 50, resp); len(bits) != 50 {
		t.Fatalf("coils decode failed: %v", bits)
	}

	resp = exchange(t, s, rtu.BuildRequest(1, rtu.FnReadHolding, 0, 125), rtu.RegisterFrameLen(125))
	if regs := rtu.ParseRegisters(1, 125, resp); len(regs) != 125 {
		t.Fatalf("registers decode failed: %v", regs)
	}

	// Writes land anywhere in the widened image.
	echo := exchange(t, s, rtu.BuildWriteCoil(1, 42, true), rtu.WriteEchoLen)
	if !rtu.CheckWriteEcho(1, rtu.FnWriteCoil, echo) {
		t.Fatalf("write coil not acknowledged: % X", echo)
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	run := func() [][]byte {
		s := NewSimulator(1)
		s.Open()
		var out [][]byte
		for cycle := 0; cycle < 5; cycle++ {
			out = append(out,
				exchange(t, s, rtu.BuildRequest(1, rtu.FnReadInputs, 0, 16), rtu.BitFrameLen(16)),
				exchange(t, s, rtu.BuildRequest(1, rtu.FnReadCoils, 0, 16), rtu.BitFrameLen(16)),
				exchange(t, s, rtu.BuildRequest(1, rtu.FnReadHolding, 0, 10), rtu.RegisterFrameLen(10)),
			)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if string(a[i]) != string(b[i]) {
			t.Fatalf("response %d differs between identical runs:\n% X\n% X", i, a[i], b[i])
		}
	}
}

func TestSimulator_WriteCoilSticks(t *testing.T) {
	s := NewSimulator(1)
	s.Open()

	echo := exchange(t, s, rtu.BuildWriteCoil(1, 9, true), rtu.WriteEchoLen)
	if !rtu.CheckWriteEcho(1, rtu.FnWriteCoil, echo) {
		t.Fatalf("write coil not acknowledged: % X", echo)
	}

	// The written coil holds its value across regeneration.
	for cycle := 0; cycle < 3; cycle++ {
		resp := exchange(t, s, rtu.BuildRequest(1, rtu.FnReadCoils, 0, 16), rtu.BitFrameLen(16))
		bits := rtu.ParseBits(1, rtu.FnReadCoils, 16, resp)
		if bits == nil || !bits[9] {
			t.Fatalf("cycle %d: written coil 9 lost: %v", cycle, bits)
		}
	}
}

func TestSimulator_WriteRegisterSticks(t *testing.T) {
	s := NewSimulator(1)
	s.Open()

	echo := exchange(t, s, rtu.BuildWriteRegister(1, 4, 1234), rtu.WriteEchoLen)
	if !rtu.CheckWriteEcho(1, rtu.FnWriteRegister, echo) {
		t.Fatalf("write register not acknowledged: % X", echo)
	}

	resp := exchange(t, s, rtu.BuildRequest(1, rtu.FnReadHolding, 0, 10), rtu.RegisterFrameLen(10))
	regs := rtu.ParseRegisters(1, 10, resp)
	if regs == nil || regs[4] != 1234 {
		t.Fatalf("written register 4 lost: %v", regs)
	}
}

func TestSimulator_SilentOnBadFrames(t *testing.T) {
	s := NewSimulator(1)
	s.Open()

	// Corrupt CRC: no response, like a real slave ignoring the frame.
	req := rtu.BuildRequest(1, rtu.FnReadCoils, 0, 16)
	req[len(req)-1] ^= 0xFF
	s.Send(req)
	if _, err := s.Receive(rtu.BitFrameLen(16)); err != ErrNoData {
		t.Fatalf("corrupt request: err=%v, want ErrNoData", err)
	}

	// Addressed to another slave: same silence.
	s.Send(rtu.BuildRequest(7, rtu.FnReadCoils, 0, 16))
	if _, err := s.Receive(rtu.BitFrameLen(16)); err != ErrNoData {
		t.Fatalf("foreign slave: err=%v, want ErrNoData", err)
	}

	// Out-of-range read: silence, not a torn frame.
	s.Send(rtu.BuildRequest(1, rtu.FnReadHolding, 0, 50))
	if _, err := s.Receive(rtu.RegisterFrameLen(50)); err != ErrNoData {
		t.Fatalf("out of range read: err=%v, want ErrNoData", err)
	}
}
