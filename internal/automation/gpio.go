// internal/automation/gpio.go
package automation

import "sync"

// PinMode is a GPIO pin direction.
type PinMode string

const (
	PinInput  PinMode = "input"
	PinOutput PinMode = "output"
)

// PinState is the tracked state of one GPIO pin.
type PinState struct {
	Mode  PinMode `json:"mode"`
	Value bool    `json:"value"`
}

// GPIO tracks pin state in memory. Without physical GPIO hardware the
// map is the whole truth; the contract (setup, set, get) is the same
// either way, so scripts never know the difference.
type GPIO struct {
	mu   sync.Mutex
	pins map[int]PinState
}

// NewGPIO creates an empty pin map.
func NewGPIO() *GPIO {
	return &GPIO{pins: make(map[int]PinState)}
}

// SetupPin configures a pin. Repeated setup just updates the mode.
func (g *GPIO) SetupPin(pin int, mode PinMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.pins[pin]
	st.Mode = mode
	g.pins[pin] = st
}

// SetPin drives a pin. An unconfigured pin is set up as an output
// first.
func (g *GPIO) SetPin(pin int, value bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.pins[pin]
	if !ok {
		st = PinState{Mode: PinOutput}
	}
	st.Value = value
	g.pins[pin] = st
}

// GetPin reads a pin; unconfigured pins read false.
func (g *GPIO) GetPin(pin int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pins[pin].Value
}

// States returns a copy of all pin states.
func (g *GPIO) States() map[int]PinState {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int]PinState, len(g.pins))
	for pin, st := range g.pins {
		out[pin] = st
	}
	return out
}
