package convert

import (
	"github.com/datasetninja/modes-cattle/logging"
)

// Progress receives batch progress of one folder at a time.
type Progress interface {
	// Start begins a step of total images.
	Start(total int, message string)
	// Advance marks n more images as done.
	Advance(n int)
	// Done ends the current step.
	Done()
}

type logProgress struct {
	logger  logging.Logger
	message string
	total   int
	done    int
}

// NewLogProgress returns a Progress writing one info line per advance.
func NewLogProgress(logger logging.Logger) Progress {
	return &logProgress{logger: logger}
}

func (p *logProgress) Start(total int, message string) {
	p.message, p.total, p.done = message, total, 0
	p.logger.Infow(message, "total", total)
}

func (p *logProgress) Advance(n int) {
	p.done += n
	p.logger.Infow(p.message, "done", p.done, "total", p.total)
}

func (p *logProgress) Done() {
	p.logger.Debugw("step finished", "step", p.message, "done", p.done, "total", p.total)
}
