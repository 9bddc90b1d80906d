package nginst

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressFunc is called once for every 25% boundary a download crosses.
// total is -1 when the server did not announce a size; in that case the
// callback fires once, at completion, with percent 100.
type ProgressFunc func(percent int, written, total int64)

// progressWriter counts bytes copied to a download and reports quarters.
type progressWriter struct {
	total   int64
	written int64
	next    int // next quarter to report, 1..4
	report  ProgressFunc
}

func newProgressWriter(total int64, report ProgressFunc) *progressWriter {
	return &progressWriter{total: total, next: 1, report: report}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		for p.next <= 4 && p.written*4 >= int64(p.next)*p.total {
			if p.report != nil {
				p.report(p.next*25, p.written, p.total)
			}
			p.next++
		}
	}
	return len(b), nil
}

// finish reports completion for downloads of unknown size.
func (p *progressWriter) finish() {
	if p.total <= 0 && p.report != nil {
		p.report(100, p.written, p.total)
	}
}

// stderrIsTerminal reports whether a progress bar can be drawn.
func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// newDownloadBar returns a byte-counting bar on stderr, or io.Discard when
// the bar is disabled.
func newDownloadBar(enabled bool, total int64, name string) io.Writer {
	if !enabled {
		return io.Discard
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
