// Package command maps keystrokes to session actions and holds the pure
// validation and view arithmetic behind them.
package command

// Action is a single user command
type Action int

const (
	ActionNone Action = iota
	ActionPause
	ActionQuit
	ActionCursorDown
	ActionCursorUp
	ActionFineDown
	ActionFineUp
	ActionCoarseDown
	ActionCoarseUp
	ActionJump
	ActionSetStart
	ActionSetEnd
	ActionZoomIn
	ActionZoomOut
	ActionBand
	ActionBandInfo
	ActionRecallMarker
	ActionSetMarker
	ActionPeakHold
	ActionAveraging
	ActionAutoScale
	ActionAGC
	ActionAGCTarget
	ActionAGCSpeed
	ActionPalette
	ActionSpeedDown
	ActionSpeedUp
	ActionGain
	ActionGainDown
	ActionGainUp
	ActionSampleRate
	ActionPPMDown
	ActionPPMUp
	ActionSaveSettings
	ActionLoadSettings
	ActionAnnotate
	ActionExport
	ActionScreenshot
	ActionAutoExport
	ActionRecord
	ActionDetect
	ActionHelp
	ActionClear
)

var actionNames = map[Action]string{
	ActionNone:         "none",
	ActionPause:        "pause",
	ActionQuit:         "quit",
	ActionCursorDown:   "cursor-down",
	ActionCursorUp:     "cursor-up",
	ActionFineDown:     "fine-down",
	ActionFineUp:       "fine-up",
	ActionCoarseDown:   "coarse-down",
	ActionCoarseUp:     "coarse-up",
	ActionJump:         "jump",
	ActionSetStart:     "set-start",
	ActionSetEnd:       "set-end",
	ActionZoomIn:       "zoom-in",
	ActionZoomOut:      "zoom-out",
	ActionBand:         "band",
	ActionBandInfo:     "band-info",
	ActionRecallMarker: "recall-marker",
	ActionSetMarker:    "set-marker",
	ActionPeakHold:     "peak-hold",
	ActionAveraging:    "averaging",
	ActionAutoScale:    "auto-scale",
	ActionAGC:          "agc",
	ActionAGCTarget:    "agc-target",
	ActionAGCSpeed:     "agc-speed",
	ActionPalette:      "palette",
	ActionSpeedDown:    "speed-down",
	ActionSpeedUp:      "speed-up",
	ActionGain:         "gain",
	ActionGainDown:     "gain-down",
	ActionGainUp:       "gain-up",
	ActionSampleRate:   "sample-rate",
	ActionPPMDown:      "ppm-down",
	ActionPPMUp:        "ppm-up",
	ActionSaveSettings: "save-settings",
	ActionLoadSettings: "load-settings",
	ActionAnnotate:     "annotate",
	ActionExport:       "export",
	ActionScreenshot:   "screenshot",
	ActionAutoExport:   "auto-export",
	ActionRecord:       "record",
	ActionDetect:       "detect",
	ActionHelp:         "help",
	ActionClear:        "clear",
}

// String returns the action name
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Command is a resolved keystroke. Slot is the marker number (1-5) for
// marker actions and zero otherwise.
type Command struct {
	Action Action
	Slot   int
}

var keymap = map[rune]Action{
	' ': ActionPause,
	'q': ActionQuit,
	'[': ActionCursorDown,
	']': ActionCursorUp,
	',': ActionFineDown,
	'.': ActionFineUp,
	'{': ActionCoarseDown,
	'}': ActionCoarseUp,
	'j': ActionJump,
	'<': ActionSetStart,
	'>': ActionSetEnd,
	'+': ActionZoomIn,
	'-': ActionZoomOut,
	'b': ActionBand,
	'i': ActionBandInfo,
	'k': ActionPeakHold,
	'v': ActionAveraging,
	'l': ActionAutoScale,
	'a': ActionAGC,
	'A': ActionAGCTarget,
	'z': ActionAGCSpeed,
	't': ActionPalette,
	'w': ActionSpeedDown,
	'W': ActionSpeedUp,
	'd': ActionGain,
	'g': ActionGainDown,
	'G': ActionGainUp,
	'r': ActionSampleRate,
	'p': ActionPPMDown,
	'P': ActionPPMUp,
	'y': ActionSaveSettings,
	'L': ActionLoadSettings,
	'n': ActionAnnotate,
	'e': ActionExport,
	's': ActionScreenshot,
	'S': ActionAutoExport,
	'R': ActionRecord,
	'D': ActionDetect,
	'h': ActionHelp,
	'H': ActionHelp,
	'c': ActionClear,
}

// Lookup resolves a keystroke. Unbound keys yield ActionNone.
func Lookup(key rune) Command {
	switch {
	case key >= '1' && key <= '5':
		return Command{Action: ActionRecallMarker, Slot: int(key - '0')}
	case key >= '6' && key <= '9':
		return Command{Action: ActionSetMarker, Slot: int(key-'6') + 1}
	case key == '0':
		return Command{Action: ActionSetMarker, Slot: MarkerSlots}
	}
	return Command{Action: keymap[key]}
}

// Prompt returns the prompt text for actions that ask for a value, and
// false for actions that complete immediately.
func Prompt(a Action) (string, bool) {
	p, ok := prompts[a]
	return p, ok
}

var prompts = map[Action]string{
	ActionJump:       "Enter frequency (append 'M' for MHz, or Hz by default): ",
	ActionSetStart:   "Enter start frequency in MHz: ",
	ActionSetEnd:     "Enter end frequency in MHz: ",
	ActionBand:       "Enter band name or number: ",
	ActionAGCTarget:  "Enter AGC target level (dB): ",
	ActionAGCSpeed:   "Enter AGC speed (0.1-1.0): ",
	ActionGain:       "Enter gain (0-49.6 dB): ",
	ActionSampleRate: "Enter sample rate in MHz (0.25-3.2): ",
	ActionAnnotate:   "Enter annotation text: ",
}
