// internal/rtu/crc.go
package rtu

// CRC16 computes the Modbus CRC over data. The accumulator starts at
// 0xFFFF; each input byte is XORed into the low byte, then shifted out
// bit by bit with the 0xA001 reflection polynomial. On the wire the
// CRC is transmitted low byte first.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// AppendCRC appends the Modbus CRC of b to b, low byte first, and
// returns the extended slice.
func AppendCRC(b []byte) []byte {
	crc := CRC16(b)
	return append(b, byte(crc), byte(crc>>8))
}

// VerifyCRC reports whether the trailing two bytes of adu hold the
// CRC of everything before them.
func VerifyCRC(adu []byte) bool {
	if len(adu) < 3 {
		return false
	}
	want := uint16(adu[len(adu)-2]) | uint16(adu[len(adu)-1])<<8
	return CRC16(adu[:len(adu)-2]) == want
}
