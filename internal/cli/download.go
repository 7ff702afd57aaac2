package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/badtechnologies/bpm/pkg/source"
)

// downloadBar adapts a progress bar to the writer expected by
// source.ProgressFunc. Closing it completes the bar and ends its line.
type downloadBar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (d *downloadBar) Write(p []byte) (int, error) { return d.bar.Write(p) }

func (d *downloadBar) Close() error {
	err := d.bar.Finish()
	fmt.Fprintln(d.w)
	return err
}

// downloadProgress draws one byte-counting bar per binary download on w.
// Downloads without a Content-Length are not drawn.
func downloadProgress(w io.Writer) source.ProgressFunc {
	return func(pkg string, size int64) io.Writer {
		if size <= 0 {
			return nil
		}
		return &downloadBar{w: w, bar: progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("  "+pkg),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(65*time.Millisecond),
		)}
	}
}
