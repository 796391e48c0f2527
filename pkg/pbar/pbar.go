package pbar

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ctrsuite/ctrimage/pkg/util/format"
)

const MinRefreshRate = time.Millisecond * 250

// ProgressBar tracks a batch of file conversions and renders a
// single-line terminal progress bar.
type ProgressBar struct {
	TotalFiles     int
	FilesDone      int
	BytesWritten   int64
	StartTime      time.Time
	LastUpdateTime time.Time
}

func New(totalFiles int) *ProgressBar {
	return &ProgressBar{
		TotalFiles: totalFiles,
		StartTime:  time.Now(),
	}
}

// Render updates and prints the progress bar line. Unless force is set,
// redraws are throttled to MinRefreshRate.
func (pb *ProgressBar) Render(force bool) {
	if !force && !pb.LastUpdateTime.IsZero() && time.Since(pb.LastUpdateTime) < MinRefreshRate {
		return
	}
	pb.LastUpdateTime = time.Now()

	percentage := float64(pb.FilesDone) / float64(pb.TotalFiles) * 100

	barLength := 20
	filledLen := int(float64(barLength) * percentage / 100)
	var bar string
	if filledLen == barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filledLen) + ">" + strings.Repeat(" ", barLength-filledLen-1)
	}

	elapsed := time.Since(pb.StartTime).Round(time.Second)

	// \r moves the cursor to the beginning of the line; trailing spaces
	// clear leftovers from a previous longer line.
	fmt.Fprintf(os.Stdout, "\r[%s] %3.0f%% (%d/%d files) | %s written | %s elapsed    ",
		bar,
		percentage,
		pb.FilesDone,
		pb.TotalFiles,
		format.FormatBytes(pb.BytesWritten),
		elapsed)

	os.Stdout.Sync()
}

// Finish prints a newline, terminating the progress bar output.
func (pb *ProgressBar) Finish() {
	pb.Render(true)
	fmt.Println()
}
