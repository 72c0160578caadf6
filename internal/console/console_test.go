package console

import (
	"testing"

	"github.com/eiannone/keyboard"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		char rune
		key  keyboard.Key
		want Key
		ok   bool
	}{
		{'a', 0, Rune('a'), true},
		{0, keyboard.KeySpace, Rune(' '), true},
		{0, keyboard.KeyEnter, Key{Kind: KindEnter}, true},
		{0, keyboard.KeyEsc, Key{Kind: KindEscape}, true},
		{0, keyboard.KeyBackspace2, Key{Kind: KindBackspace}, true},
		{0, keyboard.KeyCtrlC, Key{Kind: KindInterrupt}, true},
		{0, keyboard.KeyF1, Key{}, false},
	}
	for _, c := range cases {
		got, ok := translate(c.char, c.key)
		if ok != c.ok || got != c.want {
			t.Errorf("translate(%q, %v) = %+v, %v; expected %+v, %v", c.char, c.key, got, ok, c.want, c.ok)
		}
	}
}

func TestLineEditing(t *testing.T) {
	var l Line
	for _, r := range "100.5x" {
		if res := l.Apply(Rune(r)); res != LineEditing {
			t.Fatalf("Unexpected result %v while typing", res)
		}
	}
	l.Apply(Key{Kind: KindBackspace})
	l.Apply(Rune('M'))
	if l.String() != "100.5M" {
		t.Fatalf("Line = %q", l.String())
	}
	if res := l.Apply(Key{Kind: KindEnter}); res != LineSubmitted {
		t.Fatalf("Enter should submit, got %v", res)
	}

	l.Reset()
	l.Apply(Key{Kind: KindBackspace})
	if l.String() != "" {
		t.Fatalf("Backspace on empty line changed it to %q", l.String())
	}
	if res := l.Apply(Key{Kind: KindEscape}); res != LineCancelled {
		t.Fatalf("Esc should cancel, got %v", res)
	}
}

func TestLineIgnoresControlRunes(t *testing.T) {
	var l Line
	l.Apply(Rune('\t'))
	l.Apply(Rune('x'))
	if l.String() != "x" {
		t.Fatalf("Line = %q", l.String())
	}
}

func TestScript(t *testing.T) {
	s := NewScript(Rune('a'))
	s.Type("bc")
	s.Push(Key{Kind: KindEnter})
	var got []Key
	for {
		k, ok := s.Poll()
		if !ok {
			break
		}
		got = append(got, k)
	}
	if len(got) != 4 || got[2] != Rune('c') || got[3].Kind != KindEnter {
		t.Fatalf("Unexpected script output %+v", got)
	}
}
