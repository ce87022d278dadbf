// internal/rtu/frame_test.go
package rtu

import (
	"bytes"
	"testing"
)

func TestCRC16_ReferenceVectors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want uint16
	}{
		{"read 10 holding registers", []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}, 0xCDC5},
		{"check string", []byte("123456789"), 0x4B37},
		{"read 16 inputs", []byte{0x01, 0x02, 0x00, 0x00, 0x00, 0x10}, 0xC679},
	}
	for _, tc := range cases {
		if got := CRC16(tc.data); got != tc.want {
			t.Errorf("%s: CRC16=0x%04X, want 0x%04X", tc.name, got, tc.want)
		}
	}
}

func TestBuildRequest_Layout(t *testing.T) {
	req := BuildRequest(1, FnReadHolding, 0, 10)

	// CRC 0xCDC5 goes on the wire low byte first.
	want := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}
	if !bytes.Equal(req, want) {
		t.Fatalf("request = % X, want % X", req, want)
	}
	if !VerifyCRC(req) {
		t.Fatalf("built request fails its own CRC check")
	}
}

func TestBits_RoundTrip(t *testing.T) {
	for count := 1; count <= 16; count++ {
		bits := make([]bool, count)
		for i := range bits {
			bits[i] = i%3 != 0
		}

		resp := BuildReadResponse(1, FnReadInputs, PackBits(bits))
		got := ParseBits(1, FnReadInputs, count, resp)
		if got == nil {
			t.Fatalf("count=%d: unexpected nil decode", count)
		}
		if len(got) != count {
			t.Fatalf("count=%d: decoded %d bits", count, len(got))
		}
		for i := range bits {
			if got[i] != bits[i] {
				t.Fatalf("count=%d: bit %d = %t, want %t", count, i, got[i], bits[i])
			}
		}
	}
}

func TestRegisters_RoundTrip(t *testing.T) {
	for count := 1; count <= 16; count++ {
		regs := make([]uint16, count)
		for i := range regs {
			regs[i] = uint16(i*1000 + 42)
		}

		resp := BuildReadResponse(1, FnReadHolding, PackRegisters(regs))
		got := ParseRegisters(1, count, resp)
		if got == nil {
			t.Fatalf("count=%d: unexpected nil decode", count)
		}
		for i := range regs {
			if got[i] != regs[i] {
				t.Fatalf("count=%d: reg %d = %d, want %d", count, i, got[i], regs[i])
			}
		}
	}
}

func TestParse_RejectsBadFrames(t *testing.T) {
	good := BuildReadResponse(1, FnReadCoils, PackBits(make([]bool, 16)))

	cases := []struct {
		name string
		raw  []byte
	}{
		{"nil response", nil},
		{"short frame", good[:4]},
		{"truncated payload", good[:len(good)-3]},
		{"wrong slave", BuildReadResponse(2, FnReadCoils, PackBits(make([]bool, 16)))},
		{"wrong function", BuildReadResponse(1, FnReadInputs, PackBits(make([]bool, 16)))},
	}
	for _, tc := range cases {
		if got := ParseBits(1, FnReadCoils, 16, tc.raw); got != nil {
			t.Errorf("%s: got %v, want nil", tc.name, got)
		}
	}

	// Corrupt CRC on an otherwise valid frame.
	bad := append([]byte(nil), good...)
	bad[len(bad)-1] ^= 0xFF
	if got := ParseBits(1, FnReadCoils, 16, bad); got != nil {
		t.Errorf("corrupt CRC: got %v, want nil", got)
	}
}

func TestParseBits_LSBFirst(t *testing.T) {
	// 0xA5 = 1010 0101: bits 0,2,5,7 set.
	resp := BuildReadResponse(1, FnReadCoils, []byte{0xA5})
	got := ParseBits(1, FnReadCoils, 8, resp)
	want := []bool{true, false, true, false, false, true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bit %d = %t, want %t", i, got[i], want[i])
		}
	}
}

func TestWriteFrames(t *testing.T) {
	on := BuildWriteCoil(1, 5, true)
	if on[1] != FnWriteCoil || on[4] != 0xFF || on[5] != 0x00 {
		t.Fatalf("write coil on = % X", on)
	}
	off := BuildWriteCoil(1, 5, false)
	if off[4] != 0x00 || off[5] != 0x00 {
		t.Fatalf("write coil off = % X", off)
	}

	reg := BuildWriteRegister(1, 3, 0xBEEF)
	if reg[1] != FnWriteRegister || reg[4] != 0xBE || reg[5] != 0xEF {
		t.Fatalf("write register = % X", reg)
	}

	// FC5/FC6 responses echo the request.
	if !CheckWriteEcho(1, FnWriteCoil, on) {
		t.Fatalf("echo of own request rejected")
	}
	if CheckWriteEcho(2, FnWriteCoil, on) {
		t.Fatalf("echo accepted for wrong slave")
	}
	if CheckWriteEcho(1, FnWriteRegister, on) {
		t.Fatalf("echo accepted for wrong function")
	}
	if CheckWriteEcho(1, FnWriteCoil, on[:6]) {
		t.Fatalf("short echo accepted")
	}
}
