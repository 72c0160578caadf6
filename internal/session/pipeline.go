package session

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"heatwave/internal/command"
	"heatwave/internal/dsp"
	"heatwave/internal/render"
	"heatwave/internal/rtlsdr"
)

// acquire reads one block with bounded retries. It returns false when every
// attempt failed; a message is posted in that case.
func (s *Session) acquire() ([]complex64, bool) {
	size := s.estimator.FFTSize()
	if cap(s.samples) < size {
		s.samples = make([]complex64, size)
	}
	buf := s.samples[:size]

	retries := s.cfg.Device.ReadRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		begin := s.clock()
		n, err := s.dev.Read(buf, s.cfg.Device.ReadTimeout)
		if err == nil && n == 0 {
			err = rtlsdr.ErrTimeout
		}
		if err == nil {
			s.recordScan(s.clock().Sub(begin))
			return buf[:n], true
		}

		lastErr = err
		if errors.Is(err, rtlsdr.ErrTimeout) {
			s.metrics.RecordReadFailure("timeout")
		} else {
			s.metrics.RecordReadFailure("error")
		}
		if s.debug {
			log.Printf("Session: read attempt %d/%d failed: %v", attempt+1, retries, err)
		}
		if attempt < retries-1 {
			s.showMessage(fmt.Sprintf("Read error, retrying... (%v)", err))
			s.sleep(s.cfg.Device.RetryDelay)
		}
	}

	s.metrics.RecordReadFailure("exhausted")
	if errors.Is(lastErr, rtlsdr.ErrTimeout) {
		s.showMessage("Stream timeout after retries")
	} else {
		s.showMessage(fmt.Sprintf("Failed to read spectrum: %v", lastErr))
	}
	log.Printf("Session: read failed after %d attempts: %v", retries, lastErr)
	return nil, false
}

func (s *Session) recordScan(d time.Duration) {
	s.scanTimes = append(s.scanTimes, d)
	if len(s.scanTimes) > ScanWindow {
		s.scanTimes = s.scanTimes[1:]
	}
	s.metrics.ObserveScan(d)
}

// scanMillis is the mean duration of the recent reads
func (s *Session) scanMillis() int {
	if len(s.scanTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.scanTimes {
		total += d
	}
	return int((total / time.Duration(len(s.scanTimes))).Milliseconds())
}

// advance acquires one block and pushes the processed row into the
// waterfall. A failed read inserts a zero row so the display keeps moving.
func (s *Session) advance(now time.Time) {
	block, ok := s.acquire()

	var row []float64
	if ok {
		if s.recorder != nil {
			if err := s.recorder.Write(block); err != nil {
				log.Printf("Session: recording failed: %v", err)
				s.showMessage(fmt.Sprintf("Recording error: %v", err))
				s.stopRecording()
			}
		}
		s.levels = s.estimator.Estimate(block)
		if gain, changed := s.agc.Update(s.levels, now); changed {
			s.applyGain(gain, true)
		}
		if s.detect {
			minDistance := int(s.sampleRate / 1e6)
			if minDistance < 1 {
				minDistance = 1
			}
			s.signals = dsp.DetectSignals(s.levels, minDistance, s.view.ViewStart, s.view.Span)
		}

		row = s.levels
		if s.cfg.Spectrum.MedianFilter {
			row = dsp.MedianFilter3(row)
		}
		row = s.normalizer.Compress(row, s.pre.Averaging)
	} else {
		// The noise floor only tracks real spectra
		row = make([]float64, s.graphWidth)
		s.signals = nil
	}

	row = s.pre.Apply(row)
	if s.autoScale {
		row = dsp.ScaleAuto(row)
	} else {
		row = dsp.ScaleFixed(row)
	}
	if s.cfg.Spectrum.Smoothing {
		row = dsp.SavitzkyGolay(row)
	}

	shift := int(s.scrollSpeed)
	s.buffer.Insert(row, shift, now)
	s.notes.Scroll(shift)
	s.metrics.RecordFrame(shift)
	s.metrics.SetNoiseFloor(s.normalizer.NoiseFloor())

	if s.autoExport {
		s.fill += shift
		if s.fill >= s.graphHeight {
			s.draw(now)
			s.autoExportFrame(now)
			s.fill = 0
		}
	}
}

// cursorColumn maps the cursor to a graph column
func (s *Session) cursorColumn() int {
	col := int(s.view.CursorRatio() * float64(s.graphWidth))
	if col >= s.graphWidth {
		col = s.graphWidth - 1
	}
	if col < 0 {
		col = 0
	}
	return col
}

// cursorSignal is the level in dB under the cursor from the newest
// spectrum, zero before the first successful read
func (s *Session) cursorSignal() float64 {
	if len(s.levels) != s.graphWidth {
		return 0
	}
	return s.levels[s.cursorColumn()]
}

func (s *Session) scene(now time.Time) *render.Scene {
	sc := &render.Scene{
		Width:        s.width,
		Height:       s.height,
		TopMargin:    s.top,
		BottomMargin: s.bottom,
		LeftMargin:   s.left,

		Grid:       s.buffer.Rows(),
		Timestamps: s.buffer.Timestamps(),
		Palette:    s.palette,

		ViewStart: s.view.ViewStart,
		Span:      s.view.Span,
		Cursor:    s.view.Cursor,

		Annotations: s.notes.Visible(),

		Status: render.StatusLines(render.Status{
			Paused:      s.paused,
			AutoScale:   s.autoScale,
			Gain:        s.dev.Gain(),
			SampleRate:  s.sampleRate,
			PeakHold:    s.pre.PeakHold,
			Averaging:   s.pre.Averaging,
			AGC:         s.agc.Enabled(),
			Palette:     s.palette,
			ScrollSpeed: s.scrollSpeed,
			PPM:         s.ppm,
			AutoExport:  s.autoExport,
			Recording:   s.recorder != nil,
			Detection:   s.detect,
		}),
		Info: render.InfoLines(render.Info{
			Cursor:     s.view.Cursor,
			Signal:     s.cursorSignal(),
			Now:        now,
			Start:      s.view.ViewStart,
			End:        s.view.ViewEnd(),
			ScanMillis: s.scanMillis(),
		}),
		Now: now,
	}
	if s.detect {
		sc.Signals = s.signals
	}

	switch {
	case s.pending != nil && s.pending.action == command.ActionBand:
		sc.Help = s.bands.SelectionLines()
	case s.helpPage > 0:
		sc.Help = render.HelpPage(s.helpPage - 1)
	}
	if s.pending != nil {
		sc.Prompting = true
		sc.Prompt = s.pending.text + s.pending.line.String()
	}
	if msg, shown := s.Message(); shown {
		sc.Message = msg
	}
	return sc
}

// draw composites the current state and packs it into the sink
func (s *Session) draw(now time.Time) {
	render.ComposeInto(s.frame, s.scene(now))
	render.Pack(s.sink.Buffer(), s.frame, s.format)
}

// exportFrame composes the waterfall for saving. Console overlays (help,
// prompt and message) are left out and annotations are placed by age.
func (s *Session) exportFrame(now time.Time) *image.RGBA {
	sc := s.scene(now)
	sc.Annotations = s.notes.Timed(now, s.scrollSpeed)
	sc.Help = nil
	sc.Prompting = false
	sc.Prompt = ""
	sc.Message = ""
	return render.Compose(sc)
}

func (s *Session) autoExportFrame(now time.Time) {
	path, count, err := s.exporter.AutoExport(s.exportFrame(now), s.view.ViewStart, s.view.ViewEnd(), now)
	if err != nil {
		log.Printf("Session: auto-export failed: %v", err)
		s.showMessage(fmt.Sprintf("Export error: %s", err))
		return
	}
	s.metrics.RecordExport("auto")
	s.showMessage(fmt.Sprintf("Exported frame %d to %s", count, path))
}
