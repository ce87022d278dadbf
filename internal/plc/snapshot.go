// internal/plc/snapshot.go
package plc

import (
	"fmt"
	"time"
)

// SystemInfo describes the bridged controller. Static after Connect.
type SystemInfo struct {
	Model             string `json:"plc_model"`
	CommunicationType string `json:"communication_type"`
	BaudRate          int    `json:"baud_rate"`
	DeviceAddress     uint8  `json:"device_address"`
}

// snapshot is the communicator-owned process image. Each signal group
// is replaced as a whole on a successful read and left untouched when
// that group's read failed.
type snapshot struct {
	connected  bool
	lastUpdate time.Time
	commErrors uint64
	inputs     []bool
	coils      []bool
	registers  []uint16
}

// Status is the immutable copy of the snapshot handed to consumers.
// Inputs and coils are addressed 0..N-1, holding registers 1..M.
// Labeled views use the CLICK naming convention (X/Y/DS).
type Status struct {
	Connected           bool      `json:"connected"`
	LastUpdate          time.Time `json:"last_update"`
	CommunicationErrors uint64    `json:"communication_errors"`

	DigitalInputs  map[int]bool   `json:"digital_inputs"`
	DigitalOutputs map[int]bool   `json:"digital_outputs"`
	Registers      map[int]uint16 `json:"registers"`

	InputStatus   map[string]bool   `json:"input_status"`
	CoilStatus    map[string]bool   `json:"coil_status"`
	DataRegisters map[string]uint16 `json:"data_registers"`

	SystemInfo     SystemInfo `json:"system_info"`
	DataAgeSeconds float64    `json:"data_age_seconds"`
	DataFresh      bool       `json:"data_fresh"`
}

// Input returns the discrete input at addr, false when absent.
func (s Status) Input(addr int) bool { return s.DigitalInputs[addr] }

// Coil returns the coil at addr, false when absent.
func (s Status) Coil(addr int) bool { return s.DigitalOutputs[addr] }

// Register returns the holding register at logical addr (1-based),
// zero when absent.
func (s Status) Register(addr int) uint16 { return s.Registers[addr] }

// InputLabel formats a discrete-input address: 0 -> "X000".
func InputLabel(addr int) string { return fmt.Sprintf("X%03d", addr) }

// CoilLabel formats a coil address: 5 -> "Y005".
func CoilLabel(addr int) string { return fmt.Sprintf("Y%03d", addr) }

// RegisterLabel formats a logical register address: 1 -> "DS001".
func RegisterLabel(addr int) string { return fmt.Sprintf("DS%03d", addr) }
