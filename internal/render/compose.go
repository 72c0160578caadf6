package render

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"heatwave/internal/dsp"
	"heatwave/internal/waterfall"
)

// Overlay geometry
const (
	boxMargin      = 5
	statusSpacing  = 15
	infoBoxHeight  = 75
	dashLength     = 4
	smallTickStep  = 0.1e6
	largeTickStep  = 0.5e6
	smallTickLen   = 2
	largeTickLen   = 5
	labelOffsetX   = 15
	labelOffsetY   = 10
	timeTickShort  = 5
	timeTickLong   = 10
	infoWidthProbe = "Frequency: 000.000 MHz"
)

var helpShade = color.RGBA{A: 200}

// Scene is everything needed to draw one frame. Slices are read, never
// modified.
type Scene struct {
	Width        int
	Height       int
	TopMargin    int
	BottomMargin int
	LeftMargin   int

	Grid       [][]float64 // intensities in [0, 255], oldest row first
	Timestamps []time.Time // per grid row, zero when unwritten
	Palette    Palette

	ViewStart float64 // Hz at the left edge of the graph
	Span      float64 // Hz across the graph
	Cursor    float64 // Hz

	Signals     []dsp.Signal
	Annotations []waterfall.Placed

	Status    []string // top right box
	Info      []string // top left box, hidden when empty
	Help      []string // help panel, hidden when empty
	Prompt    string   // prompt line contents
	Prompting bool
	Message   string // transient centered message, hidden when empty

	Now time.Time
}

// GraphWidth is the width of the waterfall area
func (s *Scene) GraphWidth() int { return s.Width - s.LeftMargin }

// GraphHeight is the height of the waterfall area
func (s *Scene) GraphHeight() int { return s.Height - s.TopMargin - s.BottomMargin }

// FrequencyX maps a frequency to a graph column (without the left margin)
func (s *Scene) FrequencyX(freq float64) int {
	if s.Span <= 0 {
		return -1
	}
	return int((freq - s.ViewStart) / s.Span * float64(s.GraphWidth()))
}

// Compose draws the scene into a new image
func Compose(s *Scene) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	ComposeInto(img, s)
	return img
}

// ComposeInto draws the scene into img, which must match the scene size.
// Layers are painted back to front.
func ComposeInto(img *image.RGBA, s *Scene) {
	fillRect(img, img.Rect, black)

	drawHeatmap(img, s)
	drawCursor(img, s)
	drawFrequencyTicks(img, s)
	drawTimeTicks(img, s)
	drawSignals(img, s)
	drawAnnotations(img, s)
	drawStatusBox(img, s)
	drawInfoBox(img, s)
	drawHelp(img, s)
	drawPrompt(img, s)
	drawMessage(img, s)
}

func drawHeatmap(img *image.RGBA, s *Scene) {
	gw, gh := s.GraphWidth(), s.GraphHeight()
	rows := len(s.Grid)
	if rows > gh {
		rows = gh
	}
	for y := 0; y < rows; y++ {
		row := s.Grid[y]
		cols := len(row)
		if cols > gw {
			cols = gw
		}
		py := s.TopMargin + y
		off := img.PixOffset(s.LeftMargin, py)
		for x := 0; x < cols; x++ {
			c := s.Palette.Color(row[x])
			img.Pix[off+0] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = 255
			off += 4
		}
	}
}

func drawCursor(img *image.RGBA, s *Scene) {
	gw := s.GraphWidth()
	x := s.FrequencyX(s.Cursor)
	if x < 0 || x >= gw {
		return
	}
	top, bottom := s.TopMargin, s.TopMargin+s.GraphHeight()-1
	vline(img, x+s.LeftMargin, top, bottom, green)
	if x > 0 {
		vline(img, x+s.LeftMargin-1, top, bottom, dim)
	}
	if x < gw-1 {
		vline(img, x+s.LeftMargin+1, top, bottom, dim)
	}
}

func drawFrequencyTicks(img *image.RGBA, s *Scene) {
	if s.Span <= 0 {
		return
	}
	gw := s.GraphWidth()
	base := s.TopMargin + s.GraphHeight()
	end := s.ViewStart + s.Span

	for k := 0; ; k++ {
		f := s.ViewStart + float64(k)*smallTickStep
		if f >= end {
			break
		}
		if x := s.FrequencyX(f); x >= 0 && x < gw {
			vline(img, x+s.LeftMargin, base, base+smallTickLen, white)
		}
	}
	for k := 0; ; k++ {
		f := s.ViewStart + float64(k)*largeTickStep
		if f >= end {
			break
		}
		x := s.FrequencyX(f)
		if x < 0 || x >= gw {
			continue
		}
		vline(img, x+s.LeftMargin, base, base+largeTickLen, white)
		drawText(img, x+s.LeftMargin-labelOffsetX, base+labelOffsetY, fmt.Sprintf("%.1f", f/1e6), white)
	}
}

// drawTimeTicks marks rows where the insertion time crosses a minute
// boundary: short ticks every 2 minutes, long labelled ticks every 10.
func drawTimeTicks(img *image.RGBA, s *Scene) {
	rows := len(s.Timestamps)
	if gh := s.GraphHeight(); rows > gh {
		rows = gh
	}
	for y := 1; y < rows; y++ {
		prev, cur := s.Timestamps[y-1], s.Timestamps[y]
		if prev.IsZero() || cur.IsZero() {
			continue
		}
		m := cur.Truncate(time.Minute)
		if !m.After(prev) {
			continue
		}
		minute := m.Minute()
		py := s.TopMargin + y
		switch {
		case minute%10 == 0:
			hline(img, s.LeftMargin, s.LeftMargin+timeTickLong, py, white)
			ago := int(s.Now.Sub(m).Minutes())
			if ago >= 0 {
				drawText(img, s.LeftMargin+timeTickLong, py-6, fmt.Sprintf("-%dm", ago), white)
			}
		case minute%2 == 0:
			hline(img, s.LeftMargin, s.LeftMargin+timeTickShort, py, white)
		}
	}
}

func drawSignals(img *image.RGBA, s *Scene) {
	gw := s.GraphWidth()
	for _, sig := range s.Signals {
		x := s.FrequencyX(sig.Frequency)
		if x < 0 || x >= gw {
			continue
		}
		px := x + s.LeftMargin
		vline(img, px, s.TopMargin, s.TopMargin+s.GraphHeight()-1, yellow)
		drawText(img, px+2, s.TopMargin+2, fmt.Sprintf("%.1fdB", sig.SNR), yellow)
	}
}

func drawAnnotations(img *image.RGBA, s *Scene) {
	for _, a := range s.Annotations {
		y := a.Y
		if y < s.TopMargin || y >= s.Height-s.BottomMargin {
			continue
		}
		for x := 0; x < s.Width; x += dashLength * 2 {
			hline(img, x, x+dashLength-1, y, yellow)
		}
		text := AnnotationLabel(a.Annotation)
		tw := TextWidth(text)
		fillRect(img, image.Rect(8, y-8, 10+tw+2, y-6+lineHeight+2), black)
		drawText(img, 10, y-6, text, yellow)
	}
}

// AnnotationLabel formats the text drawn next to an annotation line
func AnnotationLabel(a waterfall.Annotation) string {
	return fmt.Sprintf("%s (%.3fMHz | %s)", a.Text, a.Frequency/1e6, a.Time.Format("15:04:05"))
}

func drawStatusBox(img *image.RGBA, s *Scene) {
	if len(s.Status) == 0 {
		return
	}
	maxWidth := 0
	for _, line := range s.Status {
		if w := TextWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	left := s.Width - maxWidth - boxMargin*2
	bottom := boxMargin + len(s.Status)*statusSpacing
	blendRect(img, image.Rect(left, boxMargin, s.Width-boxMargin, bottom), shade)

	x := s.Width - maxWidth - boxMargin
	for i, line := range s.Status {
		drawText(img, x, boxMargin+i*statusSpacing, line, white)
	}
}

func drawInfoBox(img *image.RGBA, s *Scene) {
	if len(s.Info) == 0 {
		return
	}
	w := TextWidth(infoWidthProbe) + boxMargin*2
	blendRect(img, image.Rect(boxMargin, boxMargin, boxMargin+w, boxMargin+infoBoxHeight), shade)
	for i, line := range s.Info {
		drawText(img, boxMargin*2, boxMargin+i*statusSpacing, line, white)
	}
}

func drawHelp(img *image.RGBA, s *Scene) {
	if len(s.Help) == 0 {
		return
	}
	maxWidth := 0
	for _, line := range s.Help {
		if w := TextWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	h := len(s.Help)*statusSpacing + boxMargin*2
	x := (s.Width - maxWidth) / 2
	y := (s.Height - h) / 2
	blendRect(img, image.Rect(x-boxMargin*2, y, x+maxWidth+boxMargin*2, y+h), helpShade)
	for i, line := range s.Help {
		drawText(img, x, y+boxMargin+i*statusSpacing, line, white)
	}
}

func drawPrompt(img *image.RGBA, s *Scene) {
	if !s.Prompting {
		return
	}
	top := s.Height - lineHeight - boxMargin*2
	fillRect(img, image.Rect(0, top, s.Width, s.Height), black)
	drawText(img, boxMargin, top+boxMargin, s.Prompt+"_", green)
}

func drawMessage(img *image.RGBA, s *Scene) {
	if s.Message == "" {
		return
	}
	tw := TextWidth(s.Message)
	x := (s.Width - tw) / 2
	y := s.Height / 2
	fillRect(img, image.Rect(x-boxMargin, y-boxMargin, x+tw+boxMargin, y+lineHeight+1+boxMargin), black)
	drawText(img, x, y, s.Message, white)
}
