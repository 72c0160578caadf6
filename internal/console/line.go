package console

import "unicode"

// LineResult is the outcome of feeding a key to a Line
type LineResult int

const (
	LineEditing   LineResult = iota // still collecting input
	LineSubmitted                   // Enter pressed
	LineCancelled                   // Esc or Ctrl-C pressed
)

// MaxLineLength bounds prompt input
const MaxLineLength = 120

// Line is a single line editor for prompts
type Line struct {
	buf []rune
}

// Apply feeds one keystroke to the editor
func (l *Line) Apply(k Key) LineResult {
	switch k.Kind {
	case KindEnter:
		return LineSubmitted
	case KindEscape, KindInterrupt:
		return LineCancelled
	case KindBackspace:
		if len(l.buf) > 0 {
			l.buf = l.buf[:len(l.buf)-1]
		}
	case KindRune:
		if unicode.IsPrint(k.Rune) && len(l.buf) < MaxLineLength {
			l.buf = append(l.buf, k.Rune)
		}
	}
	return LineEditing
}

// String returns the current contents
func (l *Line) String() string { return string(l.buf) }

// Reset clears the contents
func (l *Line) Reset() { l.buf = l.buf[:0] }
