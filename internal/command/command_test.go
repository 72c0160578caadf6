package command

import (
	"errors"
	"math"
	"testing"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		key  rune
		want Command
	}{
		{' ', Command{Action: ActionPause}},
		{'q', Command{Action: ActionQuit}},
		{'+', Command{Action: ActionZoomIn}},
		{'L', Command{Action: ActionLoadSettings}},
		{'l', Command{Action: ActionAutoScale}},
		{'H', Command{Action: ActionHelp}},
		{'1', Command{Action: ActionRecallMarker, Slot: 1}},
		{'5', Command{Action: ActionRecallMarker, Slot: 5}},
		{'6', Command{Action: ActionSetMarker, Slot: 1}},
		{'9', Command{Action: ActionSetMarker, Slot: 4}},
		{'0', Command{Action: ActionSetMarker, Slot: 5}},
		{'x', Command{Action: ActionNone}},
	}
	for _, c := range cases {
		if got := Lookup(c.key); got != c.want {
			t.Errorf("Lookup(%q) = %+v, expected %+v", c.key, got, c.want)
		}
	}

	if _, ok := Prompt(ActionJump); !ok {
		t.Errorf("Jump should prompt for a value")
	}
	if _, ok := Prompt(ActionPause); ok {
		t.Errorf("Pause should not prompt")
	}
}

func TestZoomInKeepsCursorRatio(t *testing.T) {
	v := NewView(100e6, 110e6)
	v.Cursor = 102.5e6 // 25% across

	z, err := v.ZoomIn()
	if err != nil {
		t.Fatalf("Zoom in failed: %v", err)
	}
	if z.Span != 5e6 {
		t.Fatalf("Expected 5 MHz span, got %.0f", z.Span)
	}
	if math.Abs(z.CursorRatio()-0.25) > 1e-9 {
		t.Fatalf("Cursor ratio changed to %f", z.CursorRatio())
	}
	if z.ViewStart < z.Start || z.ViewEnd() > z.End {
		t.Fatalf("Zoomed view [%f, %f] outside bounds", z.ViewStart, z.ViewEnd())
	}

	back := z.ZoomOut()
	if back.ViewStart != 100e6 || back.Span != 10e6 {
		t.Fatalf("Zoom out did not restore the full view: %+v", back)
	}
}

func TestZoomLimits(t *testing.T) {
	v := NewView(100e6, 101e6)
	for i := 0; i < 5; i++ {
		var err error
		if v, err = v.ZoomIn(); err != nil {
			t.Fatalf("Zoom in %d failed: %v", i, err)
		}
	}
	if v.Span != MinSpan {
		t.Fatalf("Span should stop at %.0f, got %.0f", MinSpan, v.Span)
	}

	narrow := NewView(100e6, 100.3e6)
	if _, err := narrow.ZoomIn(); !errors.Is(err, ErrZoomLimit) {
		t.Fatalf("Expected ErrZoomLimit for bounds narrower than the minimum span, got %v", err)
	}
}

func TestZoomOutClampsIntoBounds(t *testing.T) {
	v := View{Start: 100e6, End: 110e6, ViewStart: 105e6, Span: 5e6, Cursor: 109e6}
	z := v.ZoomOut()
	if z.ViewStart != 100e6 || z.Span != 10e6 {
		t.Fatalf("Expected view clamped to the outer bounds, got %+v", z)
	}
	if z.Cursor != 109e6 {
		t.Fatalf("Cursor moved to %f", z.Cursor)
	}
}

func TestMoveCursorClamps(t *testing.T) {
	v := NewView(100e6, 102e6)
	v = v.MoveCursor(5e6)
	if v.Cursor != 102e6 {
		t.Fatalf("Cursor not clamped to view end: %f", v.Cursor)
	}
	v = v.MoveCursor(-FineStep)
	if v.Cursor != 102e6-FineStep {
		t.Fatalf("Fine step moved cursor to %f", v.Cursor)
	}
	v = v.MoveCursor(-10e6)
	if v.Cursor != 100e6 {
		t.Fatalf("Cursor not clamped to view start: %f", v.Cursor)
	}
}

func TestWithBounds(t *testing.T) {
	v := NewView(100e6, 110e6)
	v.Cursor = 101e6
	if nv := v.WithBounds(100.5e6, 110e6); nv.Cursor != 101e6 || nv.Span != 9.5e6 {
		t.Fatalf("Unexpected view %+v", nv)
	}
	if nv := v.WithBounds(105e6, 110e6); nv.Cursor != 107.5e6 {
		t.Fatalf("Cursor outside new bounds should move to center, got %f", nv.Cursor)
	}
}

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"100.5M", 100.5e6},
		{" 145m ", 145e6},
		{"1090000000", 1090e6},
	}
	for _, c := range cases {
		got, err := ParseFrequency(c.in)
		if err != nil || got != c.want {
			t.Errorf("ParseFrequency(%q) = %f, %v", c.in, got, err)
		}
	}
	for _, bad := range []string{"", "abc", "M", "nan"} {
		if _, err := ParseFrequency(bad); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("ParseFrequency(%q) should fail with ErrInvalidNumber, got %v", bad, err)
		}
	}
}

func TestParseValidation(t *testing.T) {
	v := NewView(88e6, 108e6)
	if _, err := ParseJump("120M", v); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Jump outside bounds should be out of range, got %v", err)
	} else if err.Error() != "Frequency must be between 88.000 and 108.000 MHz" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if f, err := ParseJump("100M", v); err != nil || f != 100e6 {
		t.Errorf("ParseJump(100M) = %f, %v", f, err)
	}

	if _, err := ParseStart("20", 108e6); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Start below 24 MHz should be rejected")
	}
	if _, err := ParseStart("108", 108e6); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Start equal to end should be rejected")
	}
	if _, err := ParseEnd("1800", 88e6); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("End above 1766 MHz should be rejected")
	}
	if f, err := ParseEnd("1766", 88e6); err != nil || f != 1766e6 {
		t.Errorf("ParseEnd(1766) = %f, %v", f, err)
	}

	if _, err := ParseGain("49.7"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Gain above 49.6 should be rejected")
	}
	if _, err := ParseGain("loud"); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("Non-numeric gain should be invalid")
	}
	if r, err := ParseSampleRate("2.4"); err != nil || r != 2.4e6 {
		t.Errorf("ParseSampleRate(2.4) = %f, %v", r, err)
	}
	if _, err := ParseSampleRate("3.3"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Rate above 3.2 MHz should be rejected")
	}
	if _, err := ParseAGCTarget("-61"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("AGC target below -60 should be rejected")
	}
	if _, err := ParseAGCSpeed("0.05"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("AGC speed below 0.1 should be rejected")
	}
}

func TestSteps(t *testing.T) {
	if got := StepSpeed(MinSpeed, -SpeedStep); got != MinSpeed {
		t.Errorf("Speed went below minimum: %f", got)
	}
	if got := StepSpeed(1.98, SpeedStep); got != MaxSpeed {
		t.Errorf("Speed went above maximum: %f", got)
	}
	if got := StepGain(49, 1); got != MaxGain {
		t.Errorf("Gain step = %f, expected %f", got, MaxGain)
	}
	if got := StepGain(0.5, -1); got != MinGain {
		t.Errorf("Gain step = %f, expected %f", got, MinGain)
	}
	if got := StepPPM(100, 1); got != MaxPPM {
		t.Errorf("PPM step = %d", got)
	}
	if got := StepPPM(-3, -1); got != -4 {
		t.Errorf("PPM step = %d", got)
	}
}

func TestMoveTo(t *testing.T) {
	v := NewView(100e6, 110e6)
	v.Span = 2e6
	v.ViewStart = 100e6
	v.Cursor = 101e6

	inside, moved := v.MoveTo(101.5e6)
	if moved || inside.Cursor != 101.5e6 || inside.ViewStart != 100e6 {
		t.Fatalf("Move inside the window changed it: %+v", inside)
	}

	outside, moved := v.MoveTo(105e6)
	if !moved || outside.ViewStart != 104e6 || outside.Cursor != 105e6 {
		t.Fatalf("Expected window centered on 105 MHz, got %+v", outside)
	}

	edge, _ := v.MoveTo(109.9e6)
	if edge.ViewEnd() != 110e6 {
		t.Fatalf("Window left the outer bounds: %.0f-%.0f", edge.ViewStart, edge.ViewEnd())
	}
}
