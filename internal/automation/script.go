// internal/automation/script.go
package automation

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tamzrod/plc-bridge/internal/plc"
)

// Result is the free-form record a script run produces. The engine
// stores it without interpreting anything beyond presence.
type Result map[string]any

// State is a script's persistent key/value store. It survives between
// cycles and across disable/enable, and is dropped only when the
// script is deleted.
type State map[string]any

// IO is the capability surface handed to script handlers: GPIO access
// by pin number, single-element writes forwarded to the communicator,
// and a clock. Nothing else is reachable from a handler.
type IO interface {
	SetupPin(pin int, mode PinMode)
	SetPin(pin int, value bool)
	GetPin(pin int) bool
	WriteCoil(address int, value bool) bool
	WriteRegister(address int, value uint16) bool
	Now() time.Time
}

// ScriptFunc is the fixed handler signature. Handlers are compiled
// units registered in a Catalog; there is no runtime code evaluation.
type ScriptFunc func(status plc.Status, io IO, state State) Result

// Script is one registry entry. Handler names a Catalog entry.
type Script struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Handler     string `json:"handler"`
	Enabled     bool   `json:"enabled"`
	Pins        []int  `json:"gpio_pins"`
}

// Catalog maps handler names to compiled script functions.
type Catalog struct {
	mu       sync.RWMutex
	handlers map[string]ScriptFunc
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{handlers: make(map[string]ScriptFunc)}
}

// Register adds a handler under name. Duplicate names are rejected.
func (c *Catalog) Register(name string, fn ScriptFunc) error {
	if name == "" || fn == nil {
		return errors.New("catalog: name and handler required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.handlers[name]; exists {
		return errors.New("catalog: handler already registered: " + name)
	}
	c.handlers[name] = fn
	return nil
}

// Lookup returns the handler registered under name, or nil.
func (c *Catalog) Lookup(name string) ScriptFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handlers[name]
}

// Names returns the registered handler names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.handlers))
	for n := range c.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
