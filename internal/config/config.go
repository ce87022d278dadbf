// internal/config/config.go
package config

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	Serial        SerialConfig     `yaml:"serial"`
	DeviceAddress uint8            `yaml:"device_address"`
	Model         string           `yaml:"model"`
	Poll          PollConfig       `yaml:"poll"`
	Simulation    SimulationConfig `yaml:"simulation"`
	Reads         ReadsConfig      `yaml:"reads"`
}

// ---- SERIAL LINE ----

type SerialConfig struct {
	Port      string `yaml:"port"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"`
	StopBits  int    `yaml:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- SIMULATION ----

// Enabled runs against the simulated controller from the start.
// Fallback switches to it only when the serial port cannot be opened.
type SimulationConfig struct {
	Enabled  bool `yaml:"enabled"`
	Fallback bool `yaml:"fallback"`
}

// ---- READ GEOMETRY ----

type ReadsConfig struct {
	Inputs    int `yaml:"inputs"`
	Coils     int `yaml:"coils"`
	Registers int `yaml:"registers"`
}
