// cmd/bridge/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/plc-bridge/internal/automation"
	"github.com/tamzrod/plc-bridge/internal/config"
	"github.com/tamzrod/plc-bridge/internal/plc"
	"github.com/tamzrod/plc-bridge/internal/transport"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: bridge <config.yaml>")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	b := cfg.Bridge

	// --------------------
	// Transports: real line, simulated controller, or both
	// --------------------

	newSim := func() transport.Transport {
		return transport.NewSimulatorWithGeometry(
			b.DeviceAddress, b.Reads.Inputs, b.Reads.Coils, b.Reads.Registers)
	}

	var primary, fallback transport.Transport
	if b.Simulation.Enabled {
		primary = newSim()
	} else {
		primary = transport.NewSerial(transport.SerialConfig{
			Port:     b.Serial.Port,
			BaudRate: b.Serial.BaudRate,
			DataBits: b.Serial.DataBits,
			StopBits: b.Serial.StopBits,
			Parity:   b.Serial.Parity,
			Timeout:  time.Duration(b.Serial.TimeoutMs) * time.Millisecond,
		})
		if b.Simulation.Fallback {
			fallback = newSim()
		}
	}

	// --------------------
	// Communicator + automation engine
	// --------------------

	comm := plc.New(plc.Config{
		Model:         b.Model,
		DeviceAddress: b.DeviceAddress,
		BaudRate:      b.Serial.BaudRate,
		PollInterval:  time.Duration(b.Poll.IntervalMs) * time.Millisecond,
		InputCount:    b.Reads.Inputs,
		CoilCount:     b.Reads.Coils,
		RegisterCount: b.Reads.Registers,
	}, primary, fallback, log.With().Str("component", "plc").Logger())

	if !comm.Connect() {
		log.Warn().Msg("PLC connection failed, poll cycles will keep retrying")
	}

	engine := automation.NewEngine(
		comm,
		automation.DefaultCatalog(),
		log.With().Str("component", "automation").Logger(),
	)
	engine.LoadDefaults()

	// --------------------
	// Poll loop + orchestrator
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan plc.PollEvent)
	go comm.Run(ctx, events)

	log.Info().
		Str("port", b.Serial.Port).
		Int("interval_ms", b.Poll.IntervalMs).
		Bool("simulation", b.Simulation.Enabled).
		Msg("bridge running")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			if err := comm.Close(); err != nil {
				log.Warn().Err(err).Msg("transport close failed")
			}
			return

		case ev := <-events:
			if !ev.OK {
				log.Warn().
					Uint64("communication_errors", ev.Status.CommunicationErrors).
					Msg("poll cycle failed")
				continue
			}
			batch := engine.Run(ev.Status)
			log.Debug().
				Int("scripts", len(batch.Results)).
				Float64("data_age_s", ev.Status.DataAgeSeconds).
				Msg("poll cycle complete")
		}
	}
}
