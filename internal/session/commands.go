package session

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"heatwave/internal/bands"
	"heatwave/internal/command"
	"heatwave/internal/console"
	"heatwave/internal/export"
	"heatwave/internal/gps"
	"heatwave/internal/render"
	"heatwave/internal/settings"
	"heatwave/internal/snapshot"
)

var errNoStore = errors.New("no settings file configured")

// handleKey routes one keystroke to the prompt line or the command table
func (s *Session) handleKey(k console.Key) {
	if s.mode == ModeAwaitingInput && s.pending != nil {
		p := s.pending
		switch p.line.Apply(k) {
		case console.LineSubmitted:
			s.endPrompt()
			p.complete(p.line.String())
		case console.LineCancelled:
			s.endPrompt()
		}
		return
	}

	switch k.Kind {
	case console.KindInterrupt:
		s.dispatch(command.Command{Action: command.ActionQuit})
	case console.KindRune:
		s.dispatch(command.Lookup(k.Rune))
	}
}

func (s *Session) startPrompt(a command.Action, complete func(string)) {
	text, _ := command.Prompt(a)
	s.pending = &prompt{action: a, text: text, complete: complete}
	s.mode = ModeAwaitingInput
}

func (s *Session) endPrompt() {
	s.pending = nil
	s.mode = ModeRunning
}

// dispatch executes a resolved command
func (s *Session) dispatch(c command.Command) {
	now := s.clock()
	if s.debug && c.Action != command.ActionNone {
		log.Printf("Session: command %s", c.Action)
	}

	switch c.Action {
	case command.ActionPause:
		s.paused = !s.paused
		if s.paused {
			s.showMessage("Scanning paused")
		} else {
			s.showMessage("Scanning resumed")
		}
	case command.ActionQuit:
		s.showMessage("Quitting...")
		s.quit = true

	case command.ActionCursorDown:
		s.view = s.view.MoveCursor(-s.cursorStep)
	case command.ActionCursorUp:
		s.view = s.view.MoveCursor(s.cursorStep)
	case command.ActionFineDown:
		s.view = s.view.MoveCursor(-command.FineStep)
	case command.ActionFineUp:
		s.view = s.view.MoveCursor(command.FineStep)
	case command.ActionCoarseDown:
		s.view = s.view.MoveCursor(-2 * s.cursorStep)
	case command.ActionCoarseUp:
		s.view = s.view.MoveCursor(2 * s.cursorStep)

	case command.ActionJump:
		s.startPrompt(c.Action, s.jump)
	case command.ActionSetStart:
		s.startPrompt(c.Action, s.setStart)
	case command.ActionSetEnd:
		s.startPrompt(c.Action, s.setEnd)
	case command.ActionZoomIn:
		nv, err := s.view.ZoomIn()
		if err != nil {
			s.showMessage("Cannot zoom further: would exceed frequency bounds")
			return
		}
		s.setView(nv, fmt.Sprintf("Zoom: %.1f MHz span", nv.Span/1e6))
	case command.ActionZoomOut:
		nv := s.view.ZoomOut()
		s.setView(nv, fmt.Sprintf("Zoom: %.1f MHz span", nv.Span/1e6))

	case command.ActionBand:
		s.startPrompt(c.Action, s.selectBand)
	case command.ActionBandInfo:
		s.showMessage(s.bands.Info(s.view.Cursor))

	case command.ActionRecallMarker:
		freq, ok := s.markers[c.Slot]
		if !ok {
			s.showMessage(fmt.Sprintf("Marker %d not set", c.Slot))
			return
		}
		s.moveTo(freq, fmt.Sprintf("Jumped to marker %d: %.3f MHz", c.Slot, freq/1e6))
	case command.ActionSetMarker:
		if s.markers == nil {
			s.markers = settings.Markers{}
		}
		s.markers[c.Slot] = s.view.Cursor
		s.showMessage(fmt.Sprintf("Marker %d set to %.3f MHz", c.Slot, s.view.Cursor/1e6))

	case command.ActionPeakHold:
		s.pre.PeakHold = !s.pre.PeakHold
		s.showMessage("Peak hold " + enabled(s.pre.PeakHold))
	case command.ActionAveraging:
		s.pre.Averaging = !s.pre.Averaging
		s.showMessage("Averaging " + enabled(s.pre.Averaging))
	case command.ActionAutoScale:
		s.autoScale = !s.autoScale
		s.showMessage("Auto-scaling " + enabled(s.autoScale))
	case command.ActionAGC:
		if !s.agc.Enabled() {
			s.agc.SetGain(s.gain)
		}
		s.agc.SetEnabled(!s.agc.Enabled())
		s.showMessage("AGC " + enabled(s.agc.Enabled()))
	case command.ActionAGCTarget:
		s.startPrompt(c.Action, func(input string) {
			target, err := command.ParseAGCTarget(input)
			if err != nil {
				s.showMessage(err.Error())
				return
			}
			s.agc.SetTarget(target)
			s.showMessage(fmt.Sprintf("AGC target set to %v dB", target))
		})
	case command.ActionAGCSpeed:
		s.startPrompt(c.Action, func(input string) {
			speed, err := command.ParseAGCSpeed(input)
			if err != nil {
				s.showMessage(err.Error())
				return
			}
			s.agc.SetSpeed(speed)
			s.showMessage(fmt.Sprintf("AGC speed set to %v", speed))
		})
	case command.ActionPalette:
		s.palette = s.palette.Next()
		s.showMessage(fmt.Sprintf("Color scheme: %s", s.palette))
	case command.ActionSpeedDown:
		s.setSpeed(command.StepSpeed(s.scrollSpeed, -command.SpeedStep))
	case command.ActionSpeedUp:
		s.setSpeed(command.StepSpeed(s.scrollSpeed, command.SpeedStep))

	case command.ActionGain:
		s.startPrompt(c.Action, func(input string) {
			gain, err := command.ParseGain(input)
			if err != nil {
				s.showMessage(err.Error())
				return
			}
			if s.applyGain(gain, false) {
				s.showMessage(fmt.Sprintf("Gain set to: %.1f dB", gain))
			}
		})
	case command.ActionGainDown, command.ActionGainUp:
		delta := 1.0
		if c.Action == command.ActionGainDown {
			delta = -1
		}
		gain := command.StepGain(s.gain, delta)
		if s.applyGain(gain, false) {
			s.showMessage(fmt.Sprintf("Gain: %.1f dB", gain))
		}
	case command.ActionSampleRate:
		s.startPrompt(c.Action, func(input string) {
			rate, err := command.ParseSampleRate(input)
			if err != nil {
				s.showMessage(err.Error())
				return
			}
			if s.setSampleRate(rate) {
				s.showMessage(fmt.Sprintf("Sample rate set to: %.2f MHz", s.sampleRate/1e6))
			}
		})
	case command.ActionPPMDown:
		s.stepPPM(-1)
	case command.ActionPPMUp:
		s.stepPPM(1)

	case command.ActionSaveSettings:
		if err := s.saveSettings(); err != nil {
			s.showMessage(fmt.Sprintf("Error saving settings: %v", err))
			return
		}
		s.showMessage("Settings saved successfully")
	case command.ActionLoadSettings:
		st, err := s.loadSettings(s.currentSettings())
		if err != nil {
			s.showMessage(fmt.Sprintf("Error loading settings: %v", err))
			return
		}
		s.applySettings(st)
		s.showMessage("Settings loaded successfully")

	case command.ActionAnnotate:
		s.startPrompt(c.Action, s.annotate)
	case command.ActionExport:
		s.exportBundle(now)
	case command.ActionScreenshot:
		s.screenshot(now)
	case command.ActionAutoExport:
		s.autoExport = !s.autoExport
		s.fill = 0
		s.showMessage("Automatic screenshots " + enabled(s.autoExport))
	case command.ActionRecord:
		s.toggleRecording(now)
	case command.ActionDetect:
		s.detect = !s.detect
		if !s.detect {
			s.signals = nil
		}
		s.showMessage("Signal detection " + enabled(s.detect))
	case command.ActionHelp:
		s.helpPage = (s.helpPage + 1) % (render.HelpPageCount() + 1)
	case command.ActionClear:
		s.clear()
		s.showMessage("Display cleared")
	}
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func (s *Session) jump(input string) {
	freq, err := command.ParseJump(input, s.view)
	if err != nil {
		s.showMessage(err.Error())
		return
	}
	s.moveTo(freq, fmt.Sprintf("Jumped to %.3f MHz", freq/1e6))
}

func (s *Session) setStart(input string) {
	start, err := command.ParseStart(input, s.view.End)
	if err != nil {
		s.showMessage(err.Error())
		return
	}
	nv := s.view.WithBounds(start, s.view.End)
	s.setView(nv, fmt.Sprintf("Frequency range: %.3f-%.3f MHz", nv.Start/1e6, nv.End/1e6))
}

func (s *Session) setEnd(input string) {
	end, err := command.ParseEnd(input, s.view.Start)
	if err != nil {
		s.showMessage(err.Error())
		return
	}
	nv := s.view.WithBounds(s.view.Start, end)
	s.setView(nv, fmt.Sprintf("Frequency range: %.3f-%.3f MHz", nv.Start/1e6, nv.End/1e6))
}

func (s *Session) selectBand(input string) {
	b, err := s.bands.Select(input)
	if err != nil {
		s.showMessage(fmt.Sprintf("Unknown band: %s", strings.TrimSpace(input)))
		return
	}
	s.switchBand(b)
}

// switchBand shows the whole band, raising the sample rate so a channel
// spans at least four bins of bandwidth
func (s *Session) switchBand(b bands.Band) {
	if b.Spacing > 0 && s.sampleRate < 4*b.Spacing {
		rate := 4 * b.Spacing
		if rate > command.MaxSampleRate {
			rate = command.MaxSampleRate
		}
		s.setSampleRate(rate)
	}
	s.setView(command.NewView(b.Start, b.End), fmt.Sprintf("Switched to %s band", b.Name))
}

func (s *Session) annotate(input string) {
	text := strings.TrimSpace(input)
	if text == "" {
		return
	}
	s.notes.Add(text, s.view.Cursor, s.cursorSignal(), s.clock())
	s.metrics.RecordAnnotation()
	s.showMessage("Annotation added")
}

// moveTo places the cursor at freq, retuning when the visible window moves
func (s *Session) moveTo(freq float64, msg string) {
	nv, moved := s.view.MoveTo(freq)
	s.view = nv
	if moved && !s.retune() {
		return
	}
	s.showMessage(msg)
}

// setView replaces the geometry and retunes the receiver
func (s *Session) setView(nv command.View, msg string) {
	s.view = nv
	if s.retune() {
		s.showMessage(msg)
	}
}

// retune centers the receiver on the visible window and clears the
// display. It reports whether the device accepted the frequency.
func (s *Session) retune() bool {
	defer s.clear()
	if err := s.dev.SetFrequency(uint32(s.view.Center())); err != nil {
		log.Printf("Session: failed to set frequency %.0f: %v", s.view.Center(), err)
		s.showMessage(fmt.Sprintf("Error setting frequency: %v", err))
		return false
	}
	return true
}

// clear drops the waterfall contents and all per-frame history
func (s *Session) clear() {
	s.buffer.Clear()
	s.pre.Reset()
	s.normalizer.Reset()
	s.fill = 0
	s.signals = nil
	s.levels = nil
}

// applyGain sets the tuner gain and keeps the AGC in step with it
func (s *Session) applyGain(gain float64, fromAGC bool) bool {
	if err := s.dev.SetGain(gain); err != nil {
		log.Printf("Session: failed to set gain %.1f: %v", gain, err)
		s.showMessage(fmt.Sprintf("Error setting gain: %v", err))
		return false
	}
	s.gain = gain
	s.agc.SetGain(gain)
	s.metrics.SetGain(gain)
	if fromAGC {
		s.metrics.RecordAGCAdjustment()
		s.showMessage(fmt.Sprintf("AGC: Gain set to %.1f dB", gain))
	}
	return true
}

func (s *Session) setSampleRate(rate float64) bool {
	if err := s.dev.SetSampleRate(uint32(rate)); err != nil {
		log.Printf("Session: failed to set sample rate %.0f: %v", rate, err)
		s.showMessage(fmt.Sprintf("Error setting sample rate: %v", err))
		return false
	}
	s.sampleRate = float64(s.dev.SampleRate())
	s.estimator.SetSampleRate(s.sampleRate)
	s.metrics.SetSampleRate(s.sampleRate)
	s.clear()
	return true
}

func (s *Session) setSpeed(speed float64) {
	s.scrollSpeed = speed
	s.showMessage(fmt.Sprintf("Waterfall speed: %.2fx", speed))
}

func (s *Session) stepPPM(delta int) {
	if s.setPPM(command.StepPPM(s.ppm, delta)) {
		s.showMessage(fmt.Sprintf("PPM correction: %d", s.ppm))
	}
}

// setPPM applies a frequency correction. Unchanged values are not sent to
// the device, which rejects them.
func (s *Session) setPPM(ppm int) bool {
	if ppm == s.ppm {
		return true
	}
	if err := s.dev.SetFrequencyCorrection(ppm); err != nil {
		log.Printf("Session: failed to set PPM %d: %v", ppm, err)
		s.showMessage(fmt.Sprintf("Error setting PPM: %v", err))
		return false
	}
	s.ppm = ppm
	return true
}

// applySettings makes a loaded settings record the live state
func (s *Session) applySettings(st settings.Settings) {
	if st.SampleRate != s.sampleRate && st.SampleRate >= command.MinSampleRate && st.SampleRate <= command.MaxSampleRate {
		s.setSampleRate(st.SampleRate)
	}
	if p := render.Palette(st.ColorScheme); p.Valid() {
		s.palette = p
	}
	s.scrollSpeed = command.StepSpeed(st.ScrollSpeed, 0)
	s.applyGain(command.StepGain(st.CurrentGain, 0), false)

	s.agc.SetTarget(st.AGCTarget)
	s.agc.SetSpeed(st.AGCSpeed)
	s.agc.SetEnabled(st.AGCEnabled)

	s.pre.PeakHold = st.PeakHold
	s.pre.Averaging = st.Averaging
	s.autoScale = st.AutoScale
	s.markers = st.Markers.Clone()
	if st.CursorStep > 0 {
		s.cursorStep = st.CursorStep
	}
	s.setPPM(command.StepPPM(st.PPM, 0))
}

// currentSettings captures the live state for persistence
func (s *Session) currentSettings() settings.Settings {
	return settings.Settings{
		SampleRate:  s.sampleRate,
		ColorScheme: int(s.palette),
		ScrollSpeed: s.scrollSpeed,
		CurrentGain: s.gain,
		AGCEnabled:  s.agc.Enabled(),
		AGCTarget:   s.agc.Target(),
		AGCSpeed:    s.agc.Speed(),
		PeakHold:    s.pre.PeakHold,
		Averaging:   s.pre.Averaging,
		AutoScale:   s.autoScale,
		Markers:     s.markers.Clone(),
		CursorStep:  s.cursorStep,
		PPM:         s.ppm,
	}
}

func (s *Session) saveSettings() error {
	if s.store == nil {
		return errNoStore
	}
	return s.store.Save(s.currentSettings())
}

// exportBundle writes the snapshot, report and current frame
func (s *Session) exportBundle(now time.Time) {
	station := gps.Station(s.station)
	rows, stamps := s.buffer.Snapshot()

	meta := snapshot.Metadata{
		FormatVersion: snapshot.FormatVersion,
		Width:         s.graphWidth,
		Height:        s.graphHeight,
		SampleRate:    s.sampleRate,
		StartFreq:     s.view.ViewStart,
		EndFreq:       s.view.ViewEnd(),
		CaptureTime:   now,
		DeviceInfo:    s.dev.Info(),
	}
	if station != nil {
		meta.Station = *station
	}

	bundle := export.Bundle{
		Snapshot: &snapshot.Snapshot{Metadata: meta, Rows: rows, Timestamps: stamps},
		Report: export.NewReport(export.ReportInput{
			Now:          now,
			SessionStart: s.started,
			Start:        s.view.Start,
			End:          s.view.End,
			Annotations:  s.notes.All(),
			Settings: export.ReportSettings{
				SampleRate: s.sampleRate,
				Gain:       s.gain,
				Averaging:  s.pre.Averaging,
				PeakHold:   s.pre.PeakHold,
				AutoScale:  s.autoScale,
				PPM:        s.ppm,
			},
			Station: station,
		}),
		Frame: s.exportFrame(now),
	}

	if _, err := s.exporter.Export(bundle, now); err != nil {
		log.Printf("Session: export failed: %v", err)
		s.showMessage(fmt.Sprintf("Export error: %s", err))
		return
	}
	s.metrics.RecordExport("bundle")
	s.showMessage(fmt.Sprintf("Data exported to %s", filepath.Join(s.exporter.Dir(), export.BaseName(now))))
}

func (s *Session) screenshot(now time.Time) {
	path, err := s.exporter.Screenshot(s.exportFrame(now), s.view.ViewStart, s.view.ViewEnd(), now)
	if err != nil {
		log.Printf("Session: screenshot failed: %v", err)
		s.showMessage(fmt.Sprintf("Export error: %s", err))
		return
	}
	s.metrics.RecordExport("screenshot")
	s.showMessage(fmt.Sprintf("Saved screenshot to %s", path))
}

func (s *Session) toggleRecording(now time.Time) {
	if s.recorder != nil {
		s.stopRecording()
		s.showMessage("Recording stopped")
		return
	}
	rec, err := export.StartRecording(s.exporter.Dir(), now)
	if err != nil {
		log.Printf("Session: %v", err)
		s.showMessage(fmt.Sprintf("Recording error: %v", err))
		return
	}
	s.recorder = rec
	s.showMessage(fmt.Sprintf("Recording to %s", rec.Path()))
}

func (s *Session) stopRecording() {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Close(); err != nil {
		log.Printf("Session: failed to close recording: %v", err)
	}
	log.Printf("Session: recorded %d samples to %s", s.recorder.Samples(), s.recorder.Path())
	s.recorder = nil
}
