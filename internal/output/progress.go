package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// SupportsInPlaceUpdates reports whether dst is a terminal that can redraw a
// line in place.
func SupportsInPlaceUpdates(dst io.Writer) bool {
	file, ok := dst.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ProgressEmitter drives a terminal progress bar from run events. It sizes
// itself on run_started and advances once per processed file.
type ProgressEmitter struct {
	w  io.Writer
	mu sync.Mutex
	// bar is nil outside a run.
	bar *progressbar.ProgressBar
}

func NewProgressEmitter(w io.Writer) *ProgressEmitter {
	return &ProgressEmitter{w: w}
}

func (p *ProgressEmitter) Emit(event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Event {
	case EventRunStarted:
		total, _ := event.Details["total"].(int)
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("tagging"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(p.w) }),
		)
	case EventFileProcessed:
		if p.bar == nil {
			return nil
		}
		return p.bar.Add(1)
	case EventProviderSwitched:
		if p.bar != nil {
			to, _ := event.Details["to"].(string)
			p.bar.Describe("tagging via " + to)
		}
	case EventRunFinished, EventRunAborted:
		if p.bar == nil {
			return nil
		}
		err := p.bar.Finish()
		p.bar = nil
		return err
	}
	return nil
}
