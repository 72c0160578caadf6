package render

import (
	"fmt"
	"time"
)

// Status is the session state summarised in the top right box
type Status struct {
	Paused      bool
	AutoScale   bool
	Gain        float64 // dB
	SampleRate  float64 // Hz
	PeakHold    bool
	Averaging   bool
	AGC         bool
	Palette     Palette
	ScrollSpeed float64
	PPM         int
	AutoExport  bool
	Recording   bool
	Detection   bool
}

// StatusLines formats the status box, one entry per line
func StatusLines(s Status) []string {
	run := "[>] RUNNING"
	if s.Paused {
		run = "[||] PAUSED"
	}
	scale := "FIXED SCALE"
	if s.AutoScale {
		scale = "AUTO SCALE"
	}
	return []string{
		run,
		scale,
		fmt.Sprintf("g:Gain: %.1f dB", s.Gain),
		fmt.Sprintf("r:Rate: %.1fMHz", s.SampleRate/1e6),
		"k:Peak: " + onOff(s.PeakHold),
		"v:Avg: " + onOff(s.Averaging),
		"a:AGC: " + onOff(s.AGC),
		"t:" + s.Palette.String(),
		fmt.Sprintf("w:Wtr.Spd: %.1fx", s.ScrollSpeed),
		fmt.Sprintf("p:PPM: %+d", s.PPM),
		"S:Auto-export: " + onOff(s.AutoExport),
		"R:Rec: " + onOff(s.Recording),
		"D:Detect: " + onOff(s.Detection),
		"H:Help",
	}
}

// Info is the cursor readout shown in the top left box
type Info struct {
	Cursor     float64 // Hz
	Signal     float64 // newest level in dB under the cursor
	Now        time.Time
	Start, End float64 // visible range in Hz
	ScanMillis int     // mean acquisition time
}

// InfoLines formats the cursor readout
func InfoLines(i Info) []string {
	return []string{
		fmt.Sprintf("Frequency: %.3f MHz", i.Cursor/1e6),
		fmt.Sprintf("Signal: %.1f dB", i.Signal),
		"Time: " + i.Now.Format("15:04:05"),
		fmt.Sprintf("Range: %.3f-%.3f MHz", i.Start/1e6, i.End/1e6),
		fmt.Sprintf("Scan: %dms avg", i.ScanMillis),
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// helpPages lists the key bindings shown by the help panel
var helpPages = [][]string{
	{
		"BASIC CONTROLS",
		"Space   Pause/resume scanning",
		"h/H     Help (next page)",
		"q       Quit",
		"",
		"CURSOR NAVIGATION",
		"[ ]     Cursor left/right (step)",
		"{ }     Cursor left/right (2x step)",
		", .     Fine tune (1 kHz)",
		"j       Jump to frequency",
		"+ -     Zoom in/out around cursor",
	},
	{
		"FREQUENCY CONTROL & MARKERS",
		"<       Set start frequency",
		">       Set end frequency",
		"1-5     Recall marker",
		"6-0     Set marker 1-5 at cursor",
		"b       Select band",
		"i       Band information",
		"",
		"DISPLAY",
		"k       Peak hold",
		"v       Averaging",
		"l       Auto-scale",
		"t       Cycle palette",
		"w/W     Waterfall speed down/up",
		"D       Signal detection overlay",
		"c       Clear display",
	},
	{
		"DEVICE",
		"d       Set gain (0-49.6 dB)",
		"g/G     Gain down/up 1 dB",
		"r       Sample rate (0.25-3.2 MHz)",
		"p/P     PPM correction down/up",
		"",
		"AGC",
		"a       Toggle AGC",
		"A       AGC target (-60..0 dB)",
		"z       AGC speed (0.1-1.0)",
	},
	{
		"RECORDING & ANALYSIS",
		"s       Screenshot",
		"e       Export spectrum data",
		"S       Auto-export on fill",
		"R       Record IQ samples",
		"n       Add annotation",
		"",
		"SETTINGS",
		"y       Save settings",
		"L       Load settings",
	},
}

// HelpPageCount is the number of help panel pages
func HelpPageCount() int { return len(helpPages) }

// HelpPage returns the lines of page n (0-based) with a page footer
func HelpPage(n int) []string {
	if n < 0 || n >= len(helpPages) {
		return nil
	}
	lines := append([]string(nil), helpPages[n]...)
	return append(lines, "", fmt.Sprintf("Page %d/%d", n+1, len(helpPages)))
}
