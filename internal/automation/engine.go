// internal/automation/engine.go
package automation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/plc-bridge/internal/plc"
)

// ControllerWriter is the exact write surface the engine needs from
// the communicator.
type ControllerWriter interface {
	WriteCoil(address int, value bool) (bool, string)
	WriteRegister(address int, value uint16) (bool, string)
}

// BatchResult is the outcome of one automation cycle: per-script
// results plus the aggregate pin states after the batch.
type BatchResult struct {
	At      time.Time         `json:"at"`
	Results map[string]Result `json:"results"`
	Pins    map[int]PinState  `json:"gpio_states"`
}

// Engine holds the script registry and runs enabled scripts against
// each new snapshot. Script failures are contained per script; the
// registry may be mutated concurrently with a running batch, which
// executes against the enabled set captured at batch start.
type Engine struct {
	catalog *Catalog
	gpio    *GPIO
	plc     ControllerWriter
	log     zerolog.Logger

	mu      sync.RWMutex
	scripts map[string]*Script
	states  map[string]State

	// execMu serializes handler execution: a Run batch and an
	// ExecuteNow from a request handler may target the same script,
	// and its State map is not safe for concurrent handler calls.
	execMu sync.Mutex

	resMu sync.RWMutex
	last  BatchResult
}

// NewEngine creates an engine over the given write surface and
// handler catalog.
func NewEngine(w ControllerWriter, catalog *Catalog, log zerolog.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		gpio:    NewGPIO(),
		plc:     w,
		log:     log,
		scripts: make(map[string]*Script),
		states:  make(map[string]State),
	}
}

// LoadDefaults registers the stock script definitions. Existing ids
// are left alone.
func (e *Engine) LoadDefaults() {
	for _, s := range DefaultScripts() {
		if _, err := e.Create(s); err != nil {
			e.log.Debug().Str("script", s.ID).Err(err).Msg("default script skipped")
		}
	}
}

// Create adds a script. A missing id is generated; the handler must
// exist in the catalog.
func (e *Engine) Create(s Script) (Script, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if e.catalog.Lookup(s.Handler) == nil {
		return Script{}, fmt.Errorf("engine: unknown handler %q", s.Handler)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.scripts[s.ID]; exists {
		return Script{}, fmt.Errorf("engine: script %q already exists", s.ID)
	}
	cp := s
	e.scripts[s.ID] = &cp
	return s, nil
}

// Update replaces a script definition in place. Runtime state is
// kept.
func (e *Engine) Update(s Script) error {
	if e.catalog.Lookup(s.Handler) == nil {
		return fmt.Errorf("engine: unknown handler %q", s.Handler)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.scripts[s.ID]; !exists {
		return fmt.Errorf("engine: script %q not found", s.ID)
	}
	cp := s
	e.scripts[s.ID] = &cp
	return nil
}

// Delete removes a script and discards its runtime state.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.scripts[id]; !exists {
		return fmt.Errorf("engine: script %q not found", id)
	}
	delete(e.scripts, id)
	delete(e.states, id)
	return nil
}

// SetEnabled flips a script's enabled flag. Disabling keeps the
// runtime state so re-enabling resumes where it left off.
func (e *Engine) SetEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, exists := e.scripts[id]
	if !exists {
		return fmt.Errorf("engine: script %q not found", id)
	}
	s.Enabled = enabled
	return nil
}

// Get returns a copy of one script.
func (e *Engine) Get(id string) (Script, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, exists := e.scripts[id]
	if !exists {
		return Script{}, false
	}
	return *s, true
}

// List returns copies of all scripts, sorted by id.
func (e *Engine) List() []Script {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Script, 0, len(e.scripts))
	for _, s := range e.scripts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Run executes all enabled scripts against the given snapshot, once,
// sequentially. The enabled set is captured at batch start; execution
// order is not guaranteed stable across cycles.
func (e *Engine) Run(status plc.Status) BatchResult {
	e.mu.RLock()
	enabled := make([]Script, 0, len(e.scripts))
	for _, s := range e.scripts {
		if s.Enabled {
			enabled = append(enabled, *s)
		}
	}
	e.mu.RUnlock()

	batch := BatchResult{
		At:      time.Now(),
		Results: make(map[string]Result, len(enabled)),
	}
	for _, s := range enabled {
		batch.Results[s.ID] = e.execute(s, status)
	}
	batch.Pins = e.gpio.States()

	e.resMu.Lock()
	e.last = batch
	e.resMu.Unlock()
	return batch
}

// ExecuteNow runs a single script immediately against the given
// snapshot, regardless of the poll cycle. Disabled scripts report so
// without running.
func (e *Engine) ExecuteNow(id string, status plc.Status) (Result, error) {
	s, ok := e.Get(id)
	if !ok {
		return nil, fmt.Errorf("engine: script %q not found", id)
	}
	if !s.Enabled {
		return Result{"status": "Script disabled", "script_id": id}, nil
	}
	res := e.execute(s, status)

	e.resMu.Lock()
	if e.last.Results == nil {
		e.last.Results = make(map[string]Result)
	}
	e.last.Results[id] = res
	e.resMu.Unlock()
	return res, nil
}

// LastResults returns the most recent batch outcome.
func (e *Engine) LastResults() BatchResult {
	e.resMu.RLock()
	defer e.resMu.RUnlock()
	cp := BatchResult{At: e.last.At}
	if e.last.Results != nil {
		cp.Results = make(map[string]Result, len(e.last.Results))
		for id, r := range e.last.Results {
			cp.Results[id] = r
		}
	}
	if e.last.Pins != nil {
		cp.Pins = make(map[int]PinState, len(e.last.Pins))
		for pin, st := range e.last.Pins {
			cp.Pins[pin] = st
		}
	}
	return cp
}

// PinStates returns the current GPIO pin map.
func (e *Engine) PinStates() map[int]PinState {
	return e.gpio.States()
}

// execute runs one script with panic containment. Handler calls are
// serialized under execMu so a per-script State map is only ever
// touched by one handler at a time. A panicking handler yields an
// error-tagged result and never disturbs the cycle or other scripts.
func (e *Engine) execute(s Script, status plc.Status) (res Result) {
	e.execMu.Lock()
	defer e.execMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("script", s.ID).Any("panic", r).Msg("script execution failed")
			res = Result{
				"error":     fmt.Sprintf("script execution failed: %v", r),
				"script_id": s.ID,
				"timestamp": time.Now().Unix(),
			}
		}
	}()

	for _, pin := range s.Pins {
		e.gpio.SetupPin(pin, PinOutput)
	}

	res = e.handlerFor(s)(status, e.capability(), e.stateFor(s.ID))
	if res == nil {
		res = Result{}
	}
	res["script_id"] = s.ID
	res["script_name"] = s.Name
	res["timestamp"] = time.Now().Unix()
	return res
}

func (e *Engine) handlerFor(s Script) ScriptFunc {
	if fn := e.catalog.Lookup(s.Handler); fn != nil {
		return fn
	}
	return func(plc.Status, IO, State) Result {
		panic(fmt.Sprintf("unknown handler %q", s.Handler))
	}
}

func (e *Engine) stateFor(id string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, exists := e.states[id]
	if !exists {
		st = make(State)
		e.states[id] = st
	}
	return st
}

func (e *Engine) capability() IO {
	return &scriptIO{engine: e}
}

// scriptIO is the restricted capability handed to handlers. It
// bridges GPIO and the communicator's write surface and exposes
// nothing else.
type scriptIO struct {
	engine *Engine
}

func (io *scriptIO) SetupPin(pin int, mode PinMode) { io.engine.gpio.SetupPin(pin, mode) }
func (io *scriptIO) SetPin(pin int, value bool)     { io.engine.gpio.SetPin(pin, value) }
func (io *scriptIO) GetPin(pin int) bool            { return io.engine.gpio.GetPin(pin) }
func (io *scriptIO) Now() time.Time                 { return time.Now() }

func (io *scriptIO) WriteCoil(address int, value bool) bool {
	ok, msg := io.engine.plc.WriteCoil(address, value)
	if !ok {
		io.engine.log.Warn().Int("address", address).Str("reason", msg).Msg("script coil write failed")
	}
	return ok
}

func (io *scriptIO) WriteRegister(address int, value uint16) bool {
	ok, msg := io.engine.plc.WriteRegister(address, value)
	if !ok {
		io.engine.log.Warn().Int("address", address).Str("reason", msg).Msg("script register write failed")
	}
	return ok
}
