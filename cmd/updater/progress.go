package main

import (
	"startercode/internal/pipeline"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// barObserver shows one progress bar per pipeline stage.
type barObserver struct {
	bar *progressbar.ProgressBar
}

var _ pipeline.Observer = (*barObserver)(nil)

func (o *barObserver) Start(stage string, total int) {
	o.bar = getProgressBar(total, stage)
}

func (o *barObserver) Step() {
	if o.bar != nil {
		_ = o.bar.Add(1)
	}
}

func (o *barObserver) Finish() {
	if o.bar != nil {
		_ = o.bar.Finish()
		o.bar = nil
	}
}
