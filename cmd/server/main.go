// Package main is the entry point for the headless joycon2midi bridge with
// its status API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/james-see/joycon2midi/pkg/api"
	"github.com/james-see/joycon2midi/pkg/bridge"
	"github.com/james-see/joycon2midi/pkg/config"
	"github.com/james-see/joycon2midi/pkg/joycon"
	"github.com/james-see/joycon2midi/pkg/logging"
	"github.com/james-see/joycon2midi/pkg/transport"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "Configuration file")
	input := flag.String("input", "-", "Snapshot input, - for stdin")
	addr := flag.String("listen", ":8080", "API listen address")
	loop := flag.Bool("loop", false, "Replay the input file forever")
	flag.Parse()

	if err := run(*cfgPath, *input, *addr, *loop); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, input, addr string, loop bool) error {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var opts []joycon.ReplayOption
	if loop {
		opts = append(opts, joycon.WithLoop())
	}
	src, err := joycon.OpenReplay(input, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to open MIDI driver: %w", err)
	}
	defer drv.Close()

	// headless: never prompt, fall back to the virtual port
	port, err := transport.Negotiate(drv, transport.NegotiateOptions{
		PortName:    cfg.MIDI.Port,
		VirtualName: cfg.MIDI.VirtualPort,
	})
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()

	bcfg, err := bridge.ConfigFrom(cfg)
	if err != nil {
		return err
	}
	b, err := bridge.New(bcfg, src, port, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("status API listening", zap.String("addr", addr), zap.String("swagger", "/swagger/index.html"))
		if err := api.StartServer(addr, b, log); err != nil {
			log.Error("status API stopped", zap.Error(err))
			stop()
		}
	}()

	log.Info("bridge running", zap.String("port", port.Name()))
	err = b.Run(ctx)
	if joycon.IsDeviceError(err) && errors.Is(err, io.EOF) {
		log.Info("end of input")
		return nil
	}
	return err
}
