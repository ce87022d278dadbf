// internal/config/normalize.go
package config

// Reference defaults: the CLICK factory serial settings and the
// demo read geometry (16 inputs, 16 coils, 10 registers).
const (
	defaultPort      = "/dev/ttyUSB0"
	defaultBaudRate  = 9600
	defaultDataBits  = 8
	defaultParity    = "N"
	defaultStopBits  = 1
	defaultTimeoutMs = 3000

	defaultIntervalMs = 1000

	defaultInputs    = 16
	defaultCoils     = 16
	defaultRegisters = 10
)

// Normalize fills defaults into unset fields.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Bridge

	if b.DeviceAddress == 0 {
		b.DeviceAddress = 1
	}
	if b.Model == "" {
		b.Model = "AutomationDirect CLICK"
	}

	if b.Serial.Port == "" {
		b.Serial.Port = defaultPort
	}
	if b.Serial.BaudRate == 0 {
		b.Serial.BaudRate = defaultBaudRate
	}
	if b.Serial.DataBits == 0 {
		b.Serial.DataBits = defaultDataBits
	}
	if b.Serial.Parity == "" {
		b.Serial.Parity = defaultParity
	}
	if b.Serial.StopBits == 0 {
		b.Serial.StopBits = defaultStopBits
	}
	if b.Serial.TimeoutMs == 0 {
		b.Serial.TimeoutMs = defaultTimeoutMs
	}

	if b.Poll.IntervalMs == 0 {
		b.Poll.IntervalMs = defaultIntervalMs
	}

	if b.Reads.Inputs == 0 {
		b.Reads.Inputs = defaultInputs
	}
	if b.Reads.Coils == 0 {
		b.Reads.Coils = defaultCoils
	}
	if b.Reads.Registers == 0 {
		b.Reads.Registers = defaultRegisters
	}
}
