package main

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"checkpoint/internal/readers"
)

// newReadProgress returns a progress callback drawing a bar on w, or nil when
// w is not a terminal.
func newReadProgress(w io.Writer) readers.ProgressFunc {
	if !shouldColorize(w) {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("Reading files"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
		if done >= total {
			_ = bar.Finish()
		}
	}
}
