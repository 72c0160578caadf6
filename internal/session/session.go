// Package session runs the waterfall: it owns every piece of display state
// and drives acquisition, processing, compositing and input handling from a
// single loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"time"

	"heatwave/internal/agc"
	"heatwave/internal/bands"
	"heatwave/internal/command"
	"heatwave/internal/config"
	"heatwave/internal/console"
	"heatwave/internal/dsp"
	"heatwave/internal/export"
	"heatwave/internal/gps"
	"heatwave/internal/metrics"
	"heatwave/internal/render"
	"heatwave/internal/settings"
	"heatwave/internal/waterfall"
)

// ScanWindow is the number of read durations averaged for the scan readout
const ScanWindow = 10

// Receiver is the tuner the session reads from. Getters return the value
// reported by the device when it can report one, otherwise the last value
// applied successfully; every setter invalidates the cached value.
type Receiver interface {
	SetSampleRate(rate uint32) error
	SampleRate() uint32
	SetFrequency(freq uint32) error
	Frequency() uint32
	SetGain(db float64) error
	Gain() float64
	SetFrequencyCorrection(ppm int) error
	Activate() error
	Read(buf []complex64, timeout time.Duration) (int, error)
	Deactivate() error
	Close() error
	Info() string
}

// Sink is the raw pixel buffer frames are packed into
type Sink interface {
	Width() int
	Height() int
	BytesPerPixel() int
	Buffer() []byte
	Close() error
}

// Mode is the loop state
type Mode int

const (
	// ModeRunning processes keystrokes as commands
	ModeRunning Mode = iota
	// ModeAwaitingInput feeds keystrokes to the prompt line and suspends
	// acquisition until the prompt completes
	ModeAwaitingInput
)

// Options are the collaborators of a session. Config, Receiver, Sink and
// Input are required.
type Options struct {
	Config   *config.Config
	Receiver Receiver
	Sink     Sink
	Input    console.Input
	Bands    *bands.Table        // built-in table when nil
	Store    *settings.Store     // settings are not persisted when nil
	Exporter *export.Exporter    // created from the config when nil
	Metrics  *metrics.Metrics    // nil records nothing
	Station  gps.Provider        // nil when the position is unknown
	Closers  []io.Closer         // closed last during shutdown
	Clock    func() time.Time    // time.Now when nil
	Sleep    func(time.Duration) // time.Sleep when nil
}

// prompt is a pending request for a line of input
type prompt struct {
	action   command.Action
	text     string
	line     console.Line
	complete func(input string)
}

// Session is the waterfall state and its frame loop
type Session struct {
	cfg      *config.Config
	dev      Receiver
	sink     Sink
	input    console.Input
	bands    *bands.Table
	store    *settings.Store
	exporter *export.Exporter
	metrics  *metrics.Metrics
	station  gps.Provider
	closers  []io.Closer
	clock    func() time.Time
	sleep    func(time.Duration)
	debug    bool

	// Geometry
	width, height     int
	graphWidth        int
	graphHeight       int
	top, bottom, left int
	format            render.PixelFormat
	frame             *image.RGBA

	// Processing
	estimator  *dsp.Estimator
	normalizer *dsp.Normalizer
	pre        *waterfall.Preprocessor
	buffer     *waterfall.Buffer
	notes      *waterfall.Annotations
	agc        *agc.Controller
	samples    []complex64
	levels     []float64 // newest spectrum in dB, before normalization
	scanTimes  []time.Duration
	signals    []dsp.Signal

	// Display state
	view        command.View
	sampleRate  float64
	gain        float64
	ppm         int
	cursorStep  float64
	scrollSpeed float64
	palette     render.Palette
	autoScale   bool
	paused      bool
	detect      bool
	autoExport  bool
	fill        int
	markers     settings.Markers
	recorder    *export.Recorder
	helpPage    int // 0 hides the help panel

	message     string
	messageTime time.Time

	mode    Mode
	pending *prompt

	started   time.Time
	quit      bool
	active    bool
	closeOnce sync.Once
	closeErr  error
}

// New builds a session over the visible range [cfg.Device.StartFreqMHz,
// cfg.Device.EndFreqMHz], applies saved settings and tunes the receiver.
func New(opts Options) (*Session, error) {
	if opts.Config == nil || opts.Receiver == nil || opts.Sink == nil || opts.Input == nil {
		return nil, errors.New("session requires a config, receiver, sink and input")
	}
	cfg := opts.Config

	format, err := render.FormatForDepth(opts.Sink.BytesPerPixel())
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		dev:      opts.Receiver,
		sink:     opts.Sink,
		input:    opts.Input,
		bands:    opts.Bands,
		store:    opts.Store,
		exporter: opts.Exporter,
		metrics:  opts.Metrics,
		station:  opts.Station,
		closers:  opts.Closers,
		clock:    opts.Clock,
		sleep:    opts.Sleep,
		debug:    cfg.Logging.Level == "debug",

		width:  opts.Sink.Width(),
		height: opts.Sink.Height(),
		top:    cfg.Display.TopMargin,
		bottom: cfg.Display.BottomMargin,
		left:   cfg.Display.LeftMargin,
		format: format,
	}
	if s.bands == nil {
		s.bands = bands.Default()
	}
	if s.exporter == nil {
		s.exporter = export.NewExporter(cfg.Export.Directory)
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}

	s.graphWidth = s.width - s.left
	s.graphHeight = s.height - s.top - s.bottom
	if s.graphWidth <= 0 || s.graphHeight <= 0 {
		return nil, fmt.Errorf("display %dx%d is too small for the configured margins", s.width, s.height)
	}
	s.frame = image.NewRGBA(image.Rect(0, 0, s.width, s.height))

	s.view = command.NewView(cfg.Device.StartFreqMHz*1e6, cfg.Device.EndFreqMHz*1e6)
	s.sampleRate = cfg.Device.SampleRate
	s.estimator = dsp.NewEstimator(s.sampleRate, s.graphWidth)
	s.normalizer = dsp.NewNormalizer(cfg.Spectrum.NoiseAlpha, cfg.Spectrum.Compression, cfg.Spectrum.NoiseRingLength)
	s.pre = waterfall.NewPreprocessor(cfg.Display.AveragingLength)
	s.buffer = waterfall.NewBuffer(s.graphWidth, s.graphHeight)
	s.notes = waterfall.NewAnnotations(s.height, s.top, s.bottom)
	s.agc = agc.New(agc.Config{
		Target:     cfg.AGC.Target,
		Speed:      cfg.AGC.Speed,
		MinGain:    cfg.AGC.MinGain,
		MaxGain:    cfg.AGC.MaxGain,
		History:    cfg.AGC.History,
		Interval:   cfg.AGC.Interval,
		Hysteresis: cfg.AGC.Hysteresis,
	}, cfg.Device.Gain)
	s.detect = cfg.Spectrum.DetectSignals
	s.started = s.clock()

	if err := s.dev.SetSampleRate(uint32(s.sampleRate)); err != nil {
		return nil, fmt.Errorf("failed to set sample rate: %w", err)
	}
	s.sampleRate = float64(s.dev.SampleRate())
	s.estimator.SetSampleRate(s.sampleRate)
	s.metrics.SetSampleRate(s.sampleRate)

	base := s.configSettings()
	st, err := s.loadSettings(base)
	switch {
	case errors.Is(err, settings.ErrNoSettings):
	case err != nil:
		log.Printf("Session: %v, using defaults", err)
		s.showMessage(fmt.Sprintf("Error loading settings: %v", err))
	}
	s.applySettings(st)

	if err := s.dev.SetFrequency(uint32(s.view.Center())); err != nil {
		return nil, fmt.Errorf("failed to set frequency: %w", err)
	}
	return s, nil
}

// configSettings is the settings record implied by the configuration alone
func (s *Session) configSettings() settings.Settings {
	st := settings.Defaults(s.sampleRate)
	st.ColorScheme = s.cfg.Display.ColorScheme
	st.ScrollSpeed = s.cfg.Display.ScrollSpeed
	st.CurrentGain = s.cfg.Device.Gain
	st.AGCEnabled = s.cfg.AGC.Enabled
	st.AGCTarget = s.cfg.AGC.Target
	st.AGCSpeed = s.cfg.AGC.Speed
	st.PPM = s.cfg.Device.PPM
	return st
}

func (s *Session) loadSettings(base settings.Settings) (settings.Settings, error) {
	if s.store == nil {
		return base, settings.ErrNoSettings
	}
	return s.store.Load(base)
}

// Mode returns the loop state
func (s *Session) Mode() Mode { return s.mode }

// Paused reports whether acquisition is paused
func (s *Session) Paused() bool { return s.paused }

// View returns the current frequency geometry
func (s *Session) View() command.View { return s.view }

// Message returns the transient message and whether it is still shown
func (s *Session) Message() (string, bool) {
	if s.message == "" {
		return "", false
	}
	return s.message, s.clock().Sub(s.messageTime) < s.cfg.Display.MessageDuration
}

// Frame returns the most recently composited image
func (s *Session) Frame() *image.RGBA { return s.frame }

// Done reports whether quit was requested
func (s *Session) Done() bool { return s.quit }

// showMessage posts the single transient on-screen message
func (s *Session) showMessage(msg string) {
	s.message = msg
	s.messageTime = s.clock()
	if s.debug {
		log.Printf("Session: %s", msg)
	}
}

// Run activates the stream and steps frames until quit is requested or ctx
// is done. The session is closed on return.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	if err := s.dev.Activate(); err != nil {
		return fmt.Errorf("failed to activate stream: %w", err)
	}
	s.active = true
	log.Printf("Session: running %.3f-%.3f MHz at %.2f MS/s", s.view.Start/1e6, s.view.End/1e6, s.sampleRate/1e6)

	for !s.quit {
		select {
		case <-ctx.Done():
			log.Printf("Session: interrupted")
			return nil
		default:
		}

		begin := s.clock()
		s.Step()
		if d := s.cfg.Display.FrameInterval - s.clock().Sub(begin); d > 0 {
			s.sleep(d)
		}
	}
	return nil
}

// Step runs one loop iteration: drain pending keys, advance the waterfall
// when running and unpaused, and redraw.
func (s *Session) Step() {
	for !s.quit {
		key, ok := s.input.Poll()
		if !ok {
			break
		}
		s.handleKey(key)
	}
	if s.quit {
		return
	}

	now := s.clock()
	if s.mode == ModeRunning && !s.paused {
		s.advance(now)
	}
	s.draw(now)
}

// Close performs the ordered shutdown: save settings, stop the stream,
// close the recording, release the display and restore the terminal.
// It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.store != nil {
			if err := s.store.Save(s.currentSettings()); err != nil {
				errs = append(errs, err)
			}
		}
		if s.recorder != nil {
			if err := s.recorder.Close(); err != nil {
				errs = append(errs, err)
			}
			s.recorder = nil
		}
		if s.active {
			if err := s.dev.Deactivate(); err != nil {
				errs = append(errs, fmt.Errorf("failed to deactivate stream: %w", err))
			}
			s.active = false
		}
		if err := s.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close device: %w", err))
		}
		if err := s.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close display: %w", err))
		}
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
		if s.closeErr != nil {
			log.Printf("Session: shutdown errors: %v", s.closeErr)
		}
	})
	return s.closeErr
}
