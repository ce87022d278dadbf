// internal/plc/communicator.go
package plc

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/plc-bridge/internal/rtu"
	"github.com/tamzrod/plc-bridge/internal/transport"
)

// Config is the communicator's runtime configuration. Counts default
// to the reference geometry (16/16/10) in New.
type Config struct {
	Model         string
	DeviceAddress uint8
	BaudRate      int
	PollInterval  time.Duration

	InputCount    int
	CoilCount     int
	RegisterCount int
}

// Communicator owns the single logical connection to the controller
// and the authoritative snapshot. Poll and the write operations share
// one transport lock so a write is never interleaved with another
// outstanding exchange; Status reads a copy under a separate read
// lock and never blocks on the wire.
type Communicator struct {
	cfg Config
	log zerolog.Logger

	mu       sync.Mutex // transport guard, held per exchange
	tr       transport.Transport
	fallback transport.Transport

	stateMu sync.RWMutex
	snap    snapshot
}

// New creates a communicator over the given transport. fallback may
// be nil; when set, a failed Open switches to it instead of reporting
// a dead connection (simulation fallback).
func New(cfg Config, tr, fallback transport.Transport, log zerolog.Logger) *Communicator {
	if cfg.Model == "" {
		cfg.Model = "AutomationDirect CLICK"
	}
	if cfg.InputCount <= 0 {
		cfg.InputCount = 16
	}
	if cfg.CoilCount <= 0 {
		cfg.CoilCount = 16
	}
	if cfg.RegisterCount <= 0 {
		cfg.RegisterCount = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Communicator{
		cfg:      cfg,
		log:      log,
		tr:       tr,
		fallback: fallback,
		snap: snapshot{
			inputs:    make([]bool, cfg.InputCount),
			coils:     make([]bool, cfg.CoilCount),
			registers: make([]uint16, cfg.RegisterCount),
		},
	}
}

// Connect opens the transport. On failure it tries the fallback
// transport if one was configured, otherwise reports false and leaves
// the communicator disconnected. Safe to call again after a failure.
func (c *Communicator) Connect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tr.Open(); err != nil {
		c.log.Warn().Err(err).Msg("transport open failed")
		if c.fallback == nil {
			c.setConnected(false)
			return false
		}
		if err := c.fallback.Open(); err != nil {
			c.log.Error().Err(err).Msg("fallback transport open failed")
			c.setConnected(false)
			return false
		}
		c.log.Info().Msg("falling back to simulated controller")
		c.tr = c.fallback
		c.fallback = nil
	}

	c.log.Info().Str("transport", c.tr.Kind()).Msg("connected to PLC")
	c.setConnected(true)
	return true
}

// Close releases the transport.
func (c *Communicator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setConnected(false)
	return c.tr.Close()
}

// Connected reports the current connection state.
func (c *Communicator) Connected() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.snap.connected
}

// Poll runs one build-write-read-parse cycle per signal group. Group
// failures are independent: a failed group keeps its previous data
// and counts one communication error. Returns true iff at least one
// group succeeded; last_update moves only then.
func (c *Communicator) Poll() bool {
	if !c.Connected() {
		c.log.Debug().Msg("poll skipped: not connected")
		return false
	}

	// Each group exchange takes the transport lock on its own, so a
	// pending write slots in between groups instead of waiting out the
	// whole cycle.
	inputs := c.readBits(rtu.FnReadInputs, c.cfg.InputCount)
	coils := c.readBits(rtu.FnReadCoils, c.cfg.CoilCount)
	registers := c.readRegisters(c.cfg.RegisterCount)

	failed := uint64(0)
	for _, ok := range []bool{inputs != nil, coils != nil, registers != nil} {
		if !ok {
			failed++
		}
	}
	ok := failed < 3

	c.stateMu.Lock()
	if inputs != nil {
		c.snap.inputs = inputs
	}
	if coils != nil {
		c.snap.coils = coils
	}
	if registers != nil {
		c.snap.registers = registers
	}
	c.snap.commErrors += failed
	if ok {
		c.snap.lastUpdate = time.Now()
	}
	c.stateMu.Unlock()

	if failed > 0 {
		c.log.Debug().Uint64("failed_groups", failed).Msg("poll cycle incomplete")
	}
	return ok
}

// readBits performs one read exchange for a bit group under the
// transport lock.
func (c *Communicator) readBits(fn uint8, count int) []bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := rtu.BuildRequest(c.cfg.DeviceAddress, fn, 0, uint16(count))
	if err := c.tr.Send(req); err != nil {
		c.log.Debug().Err(err).Uint8("fn", fn).Msg("request write failed")
		return nil
	}
	raw, err := c.tr.Receive(rtu.BitFrameLen(count))
	if err != nil {
		return nil
	}
	return rtu.ParseBits(c.cfg.DeviceAddress, fn, count, raw)
}

// readRegisters performs one holding-register read exchange under the
// transport lock. Wire address 0 maps to logical register 1.
func (c *Communicator) readRegisters(count int) []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := rtu.BuildRequest(c.cfg.DeviceAddress, rtu.FnReadHolding, 0, uint16(count))
	if err := c.tr.Send(req); err != nil {
		c.log.Debug().Err(err).Msg("register request write failed")
		return nil
	}
	raw, err := c.tr.Receive(rtu.RegisterFrameLen(count))
	if err != nil {
		return nil
	}
	return rtu.ParseRegisters(c.cfg.DeviceAddress, count, raw)
}

// WriteCoil writes one coil (0-based address). Fails closed when not
// connected.
func (c *Communicator) WriteCoil(address int, value bool) (bool, string) {
	if !c.Connected() {
		return false, "PLC not connected"
	}
	if address < 0 || address >= c.cfg.CoilCount {
		return false, fmt.Sprintf("coil address %d out of range", address)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req := rtu.BuildWriteCoil(c.cfg.DeviceAddress, uint16(address), value)
	if err := c.tr.Send(req); err != nil {
		return false, err.Error()
	}
	raw, err := c.tr.Receive(rtu.WriteEchoLen)
	if err != nil || !rtu.CheckWriteEcho(c.cfg.DeviceAddress, rtu.FnWriteCoil, raw) {
		c.bumpErrors()
		return false, fmt.Sprintf("coil %d write not acknowledged", address)
	}
	c.log.Info().Int("address", address).Bool("value", value).Msg("coil written")
	return true, "Success"
}

// WriteRegister writes one holding register (logical 1-based
// address). Fails closed when not connected.
func (c *Communicator) WriteRegister(address int, value uint16) (bool, string) {
	if !c.Connected() {
		return false, "PLC not connected"
	}
	if address < 1 || address > c.cfg.RegisterCount {
		return false, fmt.Sprintf("register address %d out of range", address)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req := rtu.BuildWriteRegister(c.cfg.DeviceAddress, uint16(address-1), value)
	if err := c.tr.Send(req); err != nil {
		return false, err.Error()
	}
	raw, err := c.tr.Receive(rtu.WriteEchoLen)
	if err != nil || !rtu.CheckWriteEcho(c.cfg.DeviceAddress, rtu.FnWriteRegister, raw) {
		c.bumpErrors()
		return false, fmt.Sprintf("register %d write not acknowledged", address)
	}
	c.log.Info().Int("address", address).Uint16("value", value).Msg("register written")
	return true, "Success"
}

// Status returns an immutable copy of the snapshot plus the derived
// data-age fields. Freshness means the data is younger than twice the
// poll interval.
func (c *Communicator) Status() Status {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	st := Status{
		Connected:           c.snap.connected,
		LastUpdate:          c.snap.lastUpdate,
		CommunicationErrors: c.snap.commErrors,
		DigitalInputs:       make(map[int]bool, len(c.snap.inputs)),
		DigitalOutputs:      make(map[int]bool, len(c.snap.coils)),
		Registers:           make(map[int]uint16, len(c.snap.registers)),
		InputStatus:         make(map[string]bool, len(c.snap.inputs)),
		CoilStatus:          make(map[string]bool, len(c.snap.coils)),
		DataRegisters:       make(map[string]uint16, len(c.snap.registers)),
		SystemInfo: SystemInfo{
			Model:             c.modelName(),
			CommunicationType: c.tr.Kind(),
			BaudRate:          c.cfg.BaudRate,
			DeviceAddress:     c.cfg.DeviceAddress,
		},
	}
	for i, v := range c.snap.inputs {
		st.DigitalInputs[i] = v
		st.InputStatus[InputLabel(i)] = v
	}
	for i, v := range c.snap.coils {
		st.DigitalOutputs[i] = v
		st.CoilStatus[CoilLabel(i)] = v
	}
	for i, v := range c.snap.registers {
		st.Registers[i+1] = v
		st.DataRegisters[RegisterLabel(i+1)] = v
	}
	if !c.snap.lastUpdate.IsZero() {
		age := time.Since(c.snap.lastUpdate).Seconds()
		st.DataAgeSeconds = math.Round(age*10) / 10
		st.DataFresh = age < 2*c.cfg.PollInterval.Seconds()
	}
	return st
}

func (c *Communicator) modelName() string {
	if c.tr.Kind() == "simulation" {
		return c.cfg.Model + " (Simulation)"
	}
	return c.cfg.Model
}

func (c *Communicator) setConnected(v bool) {
	c.stateMu.Lock()
	c.snap.connected = v
	c.stateMu.Unlock()
}

func (c *Communicator) bumpErrors() {
	c.stateMu.Lock()
	c.snap.commErrors++
	c.stateMu.Unlock()
}
