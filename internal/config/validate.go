// internal/config/validate.go
package config

import (
	"fmt"
)

// Maximum quantities a single Modbus read request may carry.
const (
	maxBitRead      = 2000
	maxRegisterRead = 125
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration. Zero values mean "use default"
// and are filled in by Normalize afterwards.
func Validate(cfg *Config) error {
	b := cfg.Bridge

	// ------------------------------------------------------------
	// DEVICE / SERIAL LINE
	// ------------------------------------------------------------

	if b.DeviceAddress > 247 {
		return fmt.Errorf(
			"device_address %d out of range (1-247)",
			b.DeviceAddress,
		)
	}

	switch b.Serial.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("serial.parity %q must be one of N, E, O", b.Serial.Parity)
	}

	if b.Serial.BaudRate < 0 {
		return fmt.Errorf("serial.baud_rate %d must be positive", b.Serial.BaudRate)
	}
	if b.Serial.TimeoutMs < 0 {
		return fmt.Errorf("serial.timeout_ms %d must be positive", b.Serial.TimeoutMs)
	}

	switch b.Serial.DataBits {
	case 0, 7, 8:
	default:
		return fmt.Errorf("serial.data_bits %d must be 7 or 8", b.Serial.DataBits)
	}
	switch b.Serial.StopBits {
	case 0, 1, 2:
	default:
		return fmt.Errorf("serial.stop_bits %d must be 1 or 2", b.Serial.StopBits)
	}

	// A serial port is mandatory unless the bridge can run against
	// the simulated controller instead.
	if !b.Simulation.Enabled && !b.Simulation.Fallback && b.Serial.Port == "" {
		return fmt.Errorf("serial.port required unless simulation is enabled")
	}

	// ------------------------------------------------------------
	// POLL / READ GEOMETRY
	// ------------------------------------------------------------

	if b.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll.interval_ms %d must be positive", b.Poll.IntervalMs)
	}

	if b.Reads.Inputs < 0 || b.Reads.Inputs > maxBitRead {
		return fmt.Errorf("reads.inputs %d out of range (1-%d)", b.Reads.Inputs, maxBitRead)
	}
	if b.Reads.Coils < 0 || b.Reads.Coils > maxBitRead {
		return fmt.Errorf("reads.coils %d out of range (1-%d)", b.Reads.Coils, maxBitRead)
	}
	if b.Reads.Registers < 0 || b.Reads.Registers > maxRegisterRead {
		return fmt.Errorf("reads.registers %d out of range (1-%d)", b.Reads.Registers, maxRegisterRead)
	}

	return nil
}
