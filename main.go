// heatwave - RTL-SDR waterfall display for the Linux framebuffer
// This program turns a stream of complex baseband samples into a scrolling
// spectrogram drawn directly into /dev/fb*, with gain control, markers,
// annotations and exports driven from the keyboard.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"heatwave/internal/bands"
	"heatwave/internal/config"
	"heatwave/internal/console"
	"heatwave/internal/framebuffer"
	"heatwave/internal/metrics"
	"heatwave/internal/rtlsdr"
	"heatwave/internal/session"
	"heatwave/internal/settings"
	"heatwave/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command line flag variables
var (
	cfgFile    string  // Configuration file path
	sampleRate float64 // Sample rate in MHz
	verbose    bool    // Enable debug logging
)

// rootCmd starts the waterfall display
var rootCmd = &cobra.Command{
	Use:   "heatwave START_MHZ END_MHZ",
	Short: "RTL-SDR waterfall display for the Linux framebuffer",
	Long: `heatwave shows a live waterfall of the range START_MHZ to END_MHZ on the
framebuffer. Press h while running for the key bindings.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runWaterfall(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Describe("heatwave"))
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached RTL-SDR devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := rtlsdr.ListDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No RTL-SDR devices found")
			return nil
		}
		for _, d := range devices {
			fmt.Printf("%d: %s\n", d.Index, d)
		}
		return nil
	},
}

var bandsCmd = &cobra.Command{
	Use:   "bands",
	Short: "List the band table used by the b and i keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := bands.Load(viper.GetString("bands.file"))
		if err != nil {
			return err
		}
		for _, line := range table.SelectionLines() {
			fmt.Println(line)
		}
		return nil
	},
}

// init initializes the CLI flags and configuration
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("bands", "", "YAML file with band table overrides")

	rootCmd.Flags().Float64VarP(&sampleRate, "sample-rate", "r", 2.4, "sample rate in MHz")
	rootCmd.Flags().IntP("device", "d", 0, "device index")
	rootCmd.Flags().String("serial", "", "device serial number (preferred over --device)")
	rootCmd.Flags().Float64P("gain", "g", 20, "initial tuner gain in dB")
	rootCmd.Flags().Int("ppm", 0, "frequency correction in PPM")
	rootCmd.Flags().StringP("framebuffer", "f", "/dev/fb0", "framebuffer device")
	rootCmd.Flags().StringP("output", "o", "./exports", "export directory")
	rootCmd.Flags().String("settings", "", "settings file (default ~/.config/heatwave/settings.json)")
	rootCmd.Flags().Bool("agc", false, "start with AGC enabled")
	rootCmd.Flags().Bool("detect", false, "start with signal detection enabled")
	rootCmd.Flags().String("gps-mode", "none", "station position source: none, manual, nmea or gpsd")
	rootCmd.Flags().String("gps-port", "/dev/ttyUSB0", "GPS serial port (for nmea mode)")
	rootCmd.Flags().String("gpsd-host", "localhost", "gpsd host address (for gpsd mode)")
	rootCmd.Flags().String("gpsd-port", "2947", "gpsd port (for gpsd mode)")
	rootCmd.Flags().Float64("latitude", 0, "manual latitude in decimal degrees")
	rootCmd.Flags().Float64("longitude", 0, "manual longitude in decimal degrees")
	rootCmd.Flags().Float64("altitude", 0, "manual altitude in meters")
	rootCmd.Flags().String("metrics", "", "serve Prometheus metrics on this address (e.g. :9109)")
	rootCmd.Flags().String("log-file", "heatwave.log", "log file used while the display is active")

	// Bind command line flags to viper configuration keys
	viper.BindPFlag("bands.file", rootCmd.PersistentFlags().Lookup("bands"))
	viper.BindPFlag("device.index", rootCmd.Flags().Lookup("device"))
	viper.BindPFlag("device.serial", rootCmd.Flags().Lookup("serial"))
	viper.BindPFlag("device.gain", rootCmd.Flags().Lookup("gain"))
	viper.BindPFlag("device.ppm", rootCmd.Flags().Lookup("ppm"))
	viper.BindPFlag("display.framebuffer", rootCmd.Flags().Lookup("framebuffer"))
	viper.BindPFlag("export.directory", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("settings.path", rootCmd.Flags().Lookup("settings"))
	viper.BindPFlag("agc.enabled", rootCmd.Flags().Lookup("agc"))
	viper.BindPFlag("spectrum.detect_signals", rootCmd.Flags().Lookup("detect"))
	viper.BindPFlag("gps.mode", rootCmd.Flags().Lookup("gps-mode"))
	viper.BindPFlag("gps.port", rootCmd.Flags().Lookup("gps-port"))
	viper.BindPFlag("gps.gpsd_host", rootCmd.Flags().Lookup("gpsd-host"))
	viper.BindPFlag("gps.gpsd_port", rootCmd.Flags().Lookup("gpsd-port"))
	viper.BindPFlag("gps.manual_latitude", rootCmd.Flags().Lookup("latitude"))
	viper.BindPFlag("gps.manual_longitude", rootCmd.Flags().Lookup("longitude"))
	viper.BindPFlag("gps.manual_altitude", rootCmd.Flags().Lookup("altitude"))
	viper.BindPFlag("metrics.listen", rootCmd.Flags().Lookup("metrics"))
	viper.BindPFlag("logging.file", rootCmd.Flags().Lookup("log-file"))

	rootCmd.AddCommand(versionCmd, devicesCmd, bandsCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("heatwave")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig overlays the config file, environment and flags on the defaults
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Settings.Path == "" {
		cfg.Settings.Path = config.DefaultSettingsPath()
	}

	switch len(args) {
	case 2:
		start, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid start frequency %q", args[0])
		}
		end, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid end frequency %q", args[1])
		}
		cfg.Device.StartFreqMHz = start
		cfg.Device.EndFreqMHz = end
	case 1:
		return nil, fmt.Errorf("both START_MHZ and END_MHZ are required")
	}

	// The flag is in MHz, the configuration in Hz
	if cmd.Flags().Changed("sample-rate") || cfg.Device.SampleRate == 0 {
		cfg.Device.SampleRate = sampleRate * 1e6
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// redirectLog sends log output to path while the framebuffer owns the
// console. The returned closer restores stderr.
func redirectLog(path string) (io.Closer, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return closerFunc(func() error {
		log.SetOutput(os.Stderr)
		return f.Close()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// runWaterfall is the main application logic
func runWaterfall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("heatwave %s starting...\n", version.Full())
	fmt.Printf("Range: %.3f-%.3f MHz\n", cfg.Device.StartFreqMHz, cfg.Device.EndFreqMHz)
	fmt.Printf("Sample rate: %.3f MHz\n", cfg.Device.SampleRate/1e6)
	fmt.Printf("Framebuffer: %s\n", cfg.Display.Framebuffer)
	fmt.Printf("Exports: %s\n", cfg.Export.Directory)
	if cfg.Logging.File != "" {
		fmt.Printf("Log: %s\n", cfg.Logging.File)
	}

	table, err := bands.Load(cfg.Bands.File)
	if err != nil {
		return err
	}

	dev, err := session.OpenReceiver(cfg.Device)
	if err != nil {
		return err
	}

	fb, err := framebuffer.Open(cfg.Display.Framebuffer)
	if err != nil {
		dev.Close()
		return err
	}

	station, err := session.StartStation(cfg.GPS, cfg.Logging.Level == "debug")
	if err != nil {
		dev.Close()
		fb.Close()
		return err
	}

	var closers []io.Closer
	if station != nil {
		closers = append(closers, station)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
		srv, err := m.Serve(cfg.Metrics.Listen)
		if err != nil {
			log.Printf("Metrics: %v, continuing without endpoint", err)
		} else {
			closers = append(closers, srv)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCloser, err := redirectLog(cfg.Logging.File)
	if err != nil {
		dev.Close()
		fb.Close()
		return err
	}

	keys, err := console.Open(ctx)
	if err != nil {
		if logCloser != nil {
			logCloser.Close()
		}
		dev.Close()
		fb.Close()
		return err
	}
	// The terminal is restored before the log is
	closers = append(closers, keys)
	if logCloser != nil {
		closers = append(closers, logCloser)
	}

	s, err := session.New(session.Options{
		Config:   cfg,
		Receiver: dev,
		Sink:     fb,
		Input:    keys,
		Bands:    table,
		Store:    settings.NewStore(cfg.Settings.Path),
		Metrics:  m,
		Station:  station,
		Closers:  closers,
	})
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		dev.Close()
		fb.Close()
		return err
	}

	if err := s.Run(ctx); err != nil {
		return err
	}
	fmt.Printf("heatwave stopped.\n")
	return nil
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
