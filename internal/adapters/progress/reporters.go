package progress

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/term"

	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

// Reporter modes accepted by New.
const (
	ModeAuto    = "auto"
	ModeSpinner = "spinner"
	ModeLog     = "log"
	ModeOff     = "off"
)

// New returns the reporter for mode. Auto selects the spinner when out is a
// terminal and the log reporter otherwise.
func New(mode string, out *os.File, logger *log.Logger) (ports.ProgressReporter, error) {
	switch strings.ToLower(mode) {
	case ModeAuto, "":
		if term.IsTerminal(int(out.Fd())) {
			return NewSpinner(out), nil
		}
		return NewLogReporter(logger), nil
	case ModeSpinner:
		return NewSpinner(out), nil
	case ModeLog:
		return NewLogReporter(logger), nil
	case ModeOff:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown progress mode: %s", mode)
	}
}

// LogReporter logs when work starts and how long it took.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter creates a reporter writing to logger.
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &LogReporter{logger: logger}
}

// Begin logs the start of the work.
func (r *LogReporter) Begin(label string) ports.Progress {
	r.logger.Info().Str("question", label).Msg("analyzing")
	return &logRun{logger: r.logger, label: label, start: time.Now()}
}

type logRun struct {
	logger *log.Logger
	label  string
	start  time.Time
}

func (r *logRun) End() {
	r.logger.Info().Str("question", r.label).Dur("elapsed", time.Since(r.start)).Msg("done analyzing")
}

// Nop reports nothing.
type Nop struct{}

// Begin returns a no-op progress.
func (Nop) Begin(string) ports.Progress { return Nop{} }

// End does nothing.
func (Nop) End() {}
