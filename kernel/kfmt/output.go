// Package kfmt provides the kernel console output path: an early ring buffer
// that captures output until a console driver attaches, a structured logger
// layered on top of it and the kernel panic routine.
package kfmt

import (
	"fmt"
	"io"
)

var (
	// earlyPrintBuffer is a ring buffer that stores output before the
	// console driver is initialized.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the currently active output sink. Until a sink is
// attached the early ring buffer is returned.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyPrintBuffer
	}
	return outputSink
}

// Printf formats according to a format specifier and writes to the active
// output sink.
func Printf(format string, args ...interface{}) {
	fmt.Fprintf(GetOutputSink(), format, args...)
}

// FillLine writes a full-width line made of ch to the active output sink.
func FillLine(ch byte) {
	var line [lineWidth + 1]byte
	for i := 0; i < lineWidth; i++ {
		line[i] = ch
	}
	line[lineWidth] = '\n'
	GetOutputSink().Write(line[:])
}

// lineWidth is the width of the banner lines emitted by FillLine.
const lineWidth = 80

// sinkProxy forwards writes to whatever sink is active at write time so that
// loggers created before the console attaches follow it once it does.
type sinkProxy struct{}

func (sinkProxy) Write(p []byte) (int, error) {
	return GetOutputSink().Write(p)
}
