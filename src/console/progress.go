package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"storepilot/src/core/jobtrack"
	"storepilot/src/log"
)

// progressLine is a single progress bar whose description follows the
// current phase text. A new bar is started for every job.
type progressLine struct {
	out io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (p *progressLine) show(percent int, phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(phase),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.out)
			}),
		)
	}
	p.bar.Describe(phase)
	if err := p.bar.Set(percent); err != nil {
		log.Debug("Failed to render progress", "error", err.Error())
	}
}

// stop ends the current bar. A finished job fills it, anything else leaves
// it where it was.
func (p *progressLine) stop(finished bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	var err error
	if finished {
		err = p.bar.Finish()
	} else {
		err = p.bar.Exit()
		fmt.Fprintln(p.out)
	}
	if err != nil {
		log.Debug("Failed to close progress bar", "error", err.Error())
	}
	p.bar = nil
}

func notify(out io.Writer, n jobtrack.Notification) {
	fmt.Fprintf(out, "%s %s\n", levelTag(n.Level), n.Message)
}

func levelTag(l jobtrack.Level) string {
	switch l {
	case jobtrack.LevelSuccess:
		return "[ok]"
	case jobtrack.LevelWarning:
		return "[warn]"
	case jobtrack.LevelError:
		return "[error]"
	default:
		return "[info]"
	}
}
