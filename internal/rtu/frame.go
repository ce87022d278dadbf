// internal/rtu/frame.go
package rtu

import "encoding/binary"

// Supported Modbus function codes.
const (
	FnReadCoils     uint8 = 0x01
	FnReadInputs    uint8 = 0x02
	FnReadHolding   uint8 = 0x03
	FnWriteCoil     uint8 = 0x05
	FnWriteRegister uint8 = 0x06
)

// WriteEchoLen is the fixed length of an FC5/FC6 response, which
// echoes the request verbatim.
const WriteEchoLen = 8

// BitFrameLen returns the full response frame length for a read of
// count coils or discrete inputs.
func BitFrameLen(count int) int {
	return 3 + (count+7)/8 + 2
}

// RegisterFrameLen returns the full response frame length for a read
// of count holding registers.
func RegisterFrameLen(count int) int {
	return 3 + 2*count + 2
}

// BuildRequest builds a read request ADU:
//
//	slave(1) fn(1) start(2,BE) count(2,BE) crc(2,LE)
func BuildRequest(slave, fn uint8, start, count uint16) []byte {
	req := make([]byte, 6, 8)
	req[0] = slave
	req[1] = fn
	binary.BigEndian.PutUint16(req[2:4], start)
	binary.BigEndian.PutUint16(req[4:6], count)
	return AppendCRC(req)
}

// BuildWriteCoil builds a single-coil write ADU (FC 0x05). The value
// field is 0xFF00 for on, 0x0000 for off.
func BuildWriteCoil(slave uint8, addr uint16, on bool) []byte {
	var value uint16
	if on {
		value = 0xFF00
	}
	return BuildRequest(slave, FnWriteCoil, addr, value)
}

// BuildWriteRegister builds a single-register write ADU (FC 0x06).
func BuildWriteRegister(slave uint8, addr, value uint16) []byte {
	return BuildRequest(slave, FnWriteRegister, addr, value)
}

// readPayload validates a read-response frame and returns its data
// bytes, or nil on any mismatch: short frame, wrong slave or function,
// declared byte count exceeding the received length, or bad CRC. A nil
// return means "no data this cycle", never a fatal fault.
func readPayload(slave, fn uint8, raw []byte) []byte {
	if len(raw) < 5 {
		return nil
	}
	if raw[0] != slave || raw[1] != fn {
		return nil
	}
	n := int(raw[2])
	if len(raw) < 3+n+2 {
		return nil
	}
	if !VerifyCRC(raw[:3+n+2]) {
		return nil
	}
	return raw[3 : 3+n]
}

// ParseBits decodes a coil (FC1) or discrete-input (FC2) read
// response into count booleans, unpacking least-significant bit first
// within each payload byte. Returns nil on any frame mismatch or when
// the payload cannot cover count bits.
func ParseBits(slave, fn uint8, count int, raw []byte) []bool {
	payload := readPayload(slave, fn, raw)
	if payload == nil || len(payload) < (count+7)/8 {
		return nil
	}
	bits := make([]bool, 0, count)
	for _, b := range payload {
		for i := 0; i < 8; i++ {
			if len(bits) == count {
				return bits
			}
			bits = append(bits, b&(1<<i) != 0)
		}
	}
	return bits
}

// ParseRegisters decodes a holding-register (FC3) read response into
// count big-endian 16-bit values. Returns nil on any frame mismatch or
// short payload.
func ParseRegisters(slave uint8, count int, raw []byte) []uint16 {
	payload := readPayload(slave, FnReadHolding, raw)
	if payload == nil || len(payload) < 2*count {
		return nil
	}
	regs := make([]uint16, count)
	for i := 0; i < count; i++ {
		regs[i] = binary.BigEndian.Uint16(payload[2*i : 2*i+2])
	}
	return regs
}

// CheckWriteEcho reports whether raw is a plausible acknowledgment of
// a single-write request: same slave, same function code, intact CRC.
func CheckWriteEcho(slave, fn uint8, raw []byte) bool {
	if len(raw) < WriteEchoLen {
		return false
	}
	if raw[0] != slave || raw[1] != fn {
		return false
	}
	return VerifyCRC(raw[:WriteEchoLen])
}

// PackBits packs booleans into Modbus payload bytes, least-significant
// bit first. Used by response builders (the transport simulator).
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// PackRegisters packs 16-bit values into big-endian payload bytes.
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:2*i+2], r)
	}
	return out
}

// BuildReadResponse builds a read-response ADU around a prepared
// payload: slave(1) fn(1) byteCount(1) payload crc(2,LE).
func BuildReadResponse(slave, fn uint8, payload []byte) []byte {
	resp := make([]byte, 0, 3+len(payload)+2)
	resp = append(resp, slave, fn, byte(len(payload)))
	resp = append(resp, payload...)
	return AppendCRC(resp)
}
