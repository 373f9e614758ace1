// Package main is the entry point for the joycon2midi CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/james-see/joycon2midi/pkg/api"
	"github.com/james-see/joycon2midi/pkg/bridge"
	"github.com/james-see/joycon2midi/pkg/config"
	"github.com/james-see/joycon2midi/pkg/joycon"
	"github.com/james-see/joycon2midi/pkg/logging"
	"github.com/james-see/joycon2midi/pkg/translator"
	"github.com/james-see/joycon2midi/pkg/transport"
	"github.com/james-see/joycon2midi/pkg/tui"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	logLevel   string
	inputPath  string
	portName   string
	recordPath string
	listenAddr string
	midiChan   int
	loopInput  bool
	showTUI    bool
	sampleN    int
	learnStep  time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "joycon2midi",
	Short: "Turn a Nintendo Joy-Con into a MIDI controller",
	Long: `joycon2midi translates Joy-Con state snapshots into MIDI notes and
control changes and sends them to a MIDI output port.

Snapshots are read as JSON lines, one status document per line, from a
file or stdin.

Examples:
  joycon-dump | joycon2midi run
  joycon2midi run --input take.jsonl --loop --tui
  joycon2midi run --config joycon2midi.yaml --record take.mid
  joycon2midi learn zr_pointer_x
  joycon2midi calibrate --input take.jsonl
  joycon2midi serve --listen :8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Translate snapshots to MIDI",
	Args:  cobra.NoArgs,
	RunE:  runBridge,
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List recognized channel names and the configured mapping",
	Args:  cobra.NoArgs,
	RunE:  runChannels,
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Print the observed range of every axis",
	Long:  `Reads snapshots while you move the controller through its full range and prints the minimum and maximum seen on every axis.`,
	Args:  cobra.NoArgs,
	RunE:  runCalibrate,
}

var learnCmd = &cobra.Command{
	Use:   "learn <channel>",
	Short: "Send one channel's output for DAW MIDI-learn",
	Long:  `Sweeps a controller channel through 0-127, or pulses a button channel's note, so a DAW in MIDI-learn mode can bind it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLearn,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server without a controller",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (default: built-in mapping)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&midiChan, "channel", 0, "MIDI channel 0-15")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "MIDI output port (substring match)")

	// run command
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Snapshot input, - for stdin")
	runCmd.Flags().BoolVar(&loopInput, "loop", false, "Replay the input file forever")
	runCmd.Flags().StringVarP(&recordPath, "record", "r", "", "Also record the output to a MIDI file")
	runCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Serve the status API on this address")
	runCmd.Flags().BoolVar(&showTUI, "tui", false, "Show the terminal monitor")

	// calibrate command
	calibrateCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Snapshot input, - for stdin")
	calibrateCmd.Flags().IntVarP(&sampleN, "count", "n", 500, "Number of snapshots to read")

	// learn command
	learnCmd.Flags().DurationVar(&learnStep, "step", 100*time.Millisecond, "Time between events")

	// serve command
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", ":8080", "Listen address")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the configuration file, or the built-in default, and
// applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("channel") {
		cfg.MIDI.Channel = midiChan
	}
	if flags.Changed("port") {
		cfg.MIDI.Port = portName
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("record") {
		cfg.Record = recordPath
	}
	if flags.Changed("listen") {
		cfg.API.Listen = listenAddr
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Development)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openPort negotiates the output port, prompting on stdin when interactive
func openPort(drv transport.Driver, cfg *config.Config, interactive bool) (*transport.Port, error) {
	opts := transport.NegotiateOptions{
		PortName:    cfg.MIDI.Port,
		VirtualName: cfg.MIDI.VirtualPort,
	}
	if interactive {
		opts.Select = transport.PromptSelector(os.Stdin, os.Stdout)
	}
	return transport.Negotiate(drv, opts)
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var replayOpts []joycon.ReplayOption
	if loopInput {
		replayOpts = append(replayOpts, joycon.WithLoop())
	}
	src, err := joycon.OpenReplay(inputPath, replayOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to open MIDI driver: %w", err)
	}
	defer drv.Close()

	// stdin may be carrying snapshots
	port, err := openPort(drv, cfg, inputPath != "-" && !showTUI)
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()
	log.Info("MIDI output ready", zap.String("port", port.Name()), zap.Bool("virtual", port.Virtual()))

	var sink transport.Sink = port
	if cfg.Record != "" {
		rec := transport.NewRecorder(cfg.Record)
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error("failed to save recording", zap.Error(err))
				return
			}
			log.Info("recording saved", zap.String("path", cfg.Record), zap.Int("events", rec.Events()))
		}()
		sink = transport.Tee{port, rec}
	}

	bcfg, err := bridge.ConfigFrom(cfg)
	if err != nil {
		return err
	}
	b, err := bridge.New(bcfg, src, sink, log)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if cfg.API.Listen != "" {
		go func() {
			log.Info("status API listening", zap.String("addr", cfg.API.Listen))
			if err := api.StartServer(cfg.API.Listen, b, log); err != nil {
				log.Error("status API stopped", zap.Error(err))
			}
		}()
	}

	if showTUI {
		err = tui.Run(ctx, b)
	} else {
		err = b.Run(ctx)
	}
	return endOfInput(err, log)
}

// endOfInput treats the end of a replayed dump as a normal exit
func endOfInput(err error, log *zap.Logger) error {
	if err != nil && joycon.IsDeviceError(err) && errors.Is(err, io.EOF) {
		log.Info("end of input")
		return nil
	}
	return err
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cm, err := cfg.ChannelMap()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %-22s %-32s %s\n", "CHANNEL", "MODE", "READS", "DESTINATION")
	for _, info := range translator.Describe() {
		dest := "-"
		mode := info.Mode
		if spec, ok := cm.Lookup(info.Name); ok {
			dest = fmt.Sprintf("%d", spec.Destination)
			mode = spec.Mode.String()
		}
		reads := info.Source
		if info.Gate != "" {
			reads += " while " + info.Gate
		}
		fmt.Fprintf(out, "%-20s %-22s %-32s %s\n", info.Name, mode, reads, dest)
	}
	fmt.Fprintf(out, "\nMIDI channel %d\n", cfg.MIDI.Channel)
	return nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	src, err := joycon.OpenReplay(inputPath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	ctx, stop := signalContext()
	defer stop()

	ext, err := calibrate(ctx, src, sampleN)
	if err != nil {
		return err
	}
	printExtrema(cmd.OutOrStdout(), ext)
	return nil
}

// calibrate reads up to n snapshots, stopping early at the end of input
func calibrate(ctx context.Context, src joycon.Source, n int) (*joycon.Extrema, error) {
	ext := &joycon.Extrema{}
	for i := 0; i < n; i++ {
		s, err := src.ReadSnapshot(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				break
			}
			return nil, err
		}
		ext.Observe(s)
	}
	if ext.Count() == 0 {
		return nil, errors.New("no snapshots read")
	}
	return ext, nil
}

func printExtrema(w io.Writer, ext *joycon.Extrema) {
	fmt.Fprintf(w, "%d snapshots\n\n", ext.Count())
	fmt.Fprintf(w, "%-32s %8s %8s\n", "AXIS", "MIN", "MAX")
	for a := joycon.Axis(0); a < joycon.NumAxes; a++ {
		r := ext.Range(a)
		fmt.Fprintf(w, "%-32s %8d %8d\n", a, r.Min, r.Max)
	}
}

func runLearn(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cm, err := cfg.ChannelMap()
	if err != nil {
		return err
	}
	spec, ok := cm.Lookup(args[0])
	if !ok {
		if !translator.IsRecognized(args[0]) {
			return fmt.Errorf("unknown channel %q", args[0])
		}
		return fmt.Errorf("channel %q is not mapped", args[0])
	}

	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to open MIDI driver: %w", err)
	}
	defer drv.Close()

	port, err := openPort(drv, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()

	ctx, stop := signalContext()
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Sending %s (%s %d) on %s...\n", spec.Name, spec.Mode, spec.Destination, port.Name())
	if err := bridge.Learn(ctx, port, spec, uint8(cfg.MIDI.Channel), learnStep); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Done")
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to open MIDI driver: %w", err)
	}
	defer drv.Close()

	names, err := transport.ListPorts(drv)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No MIDI output ports; run will open a virtual port")
		return nil
	}
	for i, n := range names {
		fmt.Fprintf(out, "  %d: %s\n", i, n)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cm, err := cfg.ChannelMap()
	if err != nil {
		return err
	}

	addr := listenAddr
	if !cmd.Flags().Changed("listen") && cfg.API.Listen != "" {
		addr = cfg.API.Listen
	}

	fmt.Printf("Starting API server on %s...\n", addr)
	fmt.Printf("Swagger docs available at http://localhost%s/swagger/index.html\n", addr)
	return api.StartServer(addr, api.ChannelMapProvider{Map: cm, Channel: cfg.MIDI.Channel}, log)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
