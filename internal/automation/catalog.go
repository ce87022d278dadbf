// internal/automation/catalog.go
package automation

import (
	"fmt"
	"time"

	"github.com/tamzrod/plc-bridge/internal/plc"
)

// DefaultCatalog registers the built-in handlers. They cover the same
// ground as the stock automation examples shipped with the bridge:
// input-to-pin mirroring, combinational coil logic, a timer, and a
// register threshold alarm.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Register("mirror_input_to_pin", MirrorInputToPin)
	c.Register("coil_and_gate", CoilAndGate)
	c.Register("pin_toggle_timer", PinToggleTimer)
	c.Register("register_threshold_alarm", RegisterThresholdAlarm)
	return c
}

// DefaultScripts returns the stock script definitions, all disabled.
func DefaultScripts() []Script {
	return []Script{
		{
			ID:          "gpio_output_example",
			Name:        "GPIO Output Example",
			Description: "Controls GPIO pin 18 based on PLC input X001",
			Handler:     "mirror_input_to_pin",
			Pins:        []int{18},
		},
		{
			ID:          "modbus_bit_example",
			Name:        "Modbus Bit Control",
			Description: "Sets PLC coil Y005 when X002 and X003 are both active",
			Handler:     "coil_and_gate",
		},
		{
			ID:          "timer_example",
			Name:        "Timer Control",
			Description: "Toggles GPIO pin 19 every 5 seconds",
			Handler:     "pin_toggle_timer",
			Pins:        []int{19},
		},
		{
			ID:          "register_monitor",
			Name:        "Data Register Monitor",
			Description: "Monitors DS001 and triggers GPIO when value exceeds 100",
			Handler:     "register_threshold_alarm",
			Pins:        []int{20},
		},
	}
}

// MirrorInputToPin drives GPIO pin 18 from discrete input X001.
func MirrorInputToPin(status plc.Status, io IO, state State) Result {
	const pin = 18
	active := status.Input(1)
	io.SetPin(pin, active)
	res := Result{"pin": pin, "pin_state": active}
	if active {
		res["status"] = "GPIO 18 ON - X001 active"
	} else {
		res["status"] = "GPIO 18 OFF - X001 inactive"
	}
	return res
}

// CoilAndGate writes Y005 = X002 AND X003 back to the controller.
func CoilAndGate(status plc.Status, io IO, state State) Result {
	x002 := status.Input(2)
	x003 := status.Input(3)
	value := x002 && x003
	if !io.WriteCoil(5, value) {
		return Result{"status": "Failed to write Y005", "error": true}
	}
	return Result{
		"status": fmt.Sprintf("Y005 = %t (X002=%t, X003=%t)", value, x002, x003),
	}
}

// PinToggleTimer toggles GPIO pin 19 every 5 seconds, keeping its
// timer in the script's runtime state.
func PinToggleTimer(status plc.Status, io IO, state State) Result {
	const (
		pin    = 19
		period = 5 * time.Second
	)
	now := io.Now()

	last, ok := state["last_toggle"].(time.Time)
	if !ok {
		state["last_toggle"] = now
		state["pin_state"] = false
		last = now
	}

	if now.Sub(last) >= period {
		next := !state["pin_state"].(bool)
		io.SetPin(pin, next)
		state["pin_state"] = next
		state["last_toggle"] = now
		return Result{"status": fmt.Sprintf("GPIO 19 toggled to %t", next)}
	}
	remaining := period - now.Sub(last)
	return Result{"status": fmt.Sprintf("Next toggle in %.1fs", remaining.Seconds())}
}

// RegisterThresholdAlarm raises GPIO pin 20 while DS001 exceeds 100.
func RegisterThresholdAlarm(status plc.Status, io IO, state State) Result {
	const (
		pin       = 20
		threshold = 100
	)
	value := status.Register(1)
	if value > threshold {
		io.SetPin(pin, true)
		return Result{"status": fmt.Sprintf("Alert! DS001 = %d (GPIO 20 ON)", value)}
	}
	io.SetPin(pin, false)
	return Result{"status": fmt.Sprintf("DS001 = %d (Normal)", value)}
}
