// Package progress provides ports.ProgressReporter adapters: a terminal
// spinner, a structured log reporter and a no-op reporter.
package progress

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

const (
	spinnerText  = "..."
	spinnerVerb  = "Analyzing"
	doneMessage  = "Done analyzing!"
	doneColor    = "15" // bright white
	drawInterval = 100 * time.Millisecond
)

// grayShades runs up the 256-colour greyscale ramp and back down.
var grayShades = func() []int {
	var shades []int
	for c := 232; c <= 255; c++ {
		shades = append(shades, c)
	}
	for c := 254; c >= 232; c-- {
		shades = append(shades, c)
	}
	return shades
}()

// Spinner redraws an animated status line until the work ends.
type Spinner struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	interval time.Duration
}

// NewSpinner creates a spinner drawing to w. Colours are dropped when w is
// not a terminal.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{
		out:      w,
		renderer: lipgloss.NewRenderer(w),
		interval: drawInterval,
	}
}

// Begin starts the animation on its own goroutine.
func (s *Spinner) Begin(label string) ports.Progress {
	r := &spinRun{
		spinner: s,
		label:   label,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// frame returns the text and colour for animation step n.
func frame(label string, n int) (string, int) {
	i := n % (len(spinnerText) + 1)

	var sb strings.Builder
	sb.WriteString(spinnerVerb)
	if label != "" {
		sb.WriteString(" ")
		sb.WriteString(label)
	}
	sb.WriteString(spinnerText[i:])
	sb.WriteString(strings.Repeat(" ", i))

	return sb.String(), grayShades[n%len(grayShades)]
}

type spinRun struct {
	spinner *Spinner
	label   string
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	width   int
}

func (r *spinRun) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.spinner.interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		r.draw(n)
		select {
		case <-r.stop:
			r.finish()
			return
		case <-ticker.C:
		}
	}
}

func (r *spinRun) draw(n int) {
	text, shade := frame(r.label, n)
	if w := runewidth.StringWidth(text); w > r.width {
		r.width = w
	}
	style := r.spinner.renderer.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(shade)))
	io.WriteString(r.spinner.out, "\r"+style.Render(text))
}

// finish overwrites the animation with the done line.
func (r *spinRun) finish() {
	text := runewidth.FillRight(doneMessage, r.width)
	style := r.spinner.renderer.NewStyle().Foreground(lipgloss.Color(doneColor))
	io.WriteString(r.spinner.out, "\r"+style.Render(text)+"\n")
}

// End signals the animation to stop and waits until the done line is drawn.
func (r *spinRun) End() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}
