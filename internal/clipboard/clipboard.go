// Package clipboard puts extracted post text on the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"io"

	sysclip "github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// ErrUnavailable indicates that no clipboard integration is usable.
var ErrUnavailable = errors.New("clipboard unavailable")

// Writer writes text to a clipboard.
type Writer interface {
	Write(text string) error
}

// System writes through the operating system clipboard utilities.
type System struct{}

// Write implements Writer.
func (System) Write(text string) error {
	if sysclip.Unsupported {
		return ErrUnavailable
	}
	if err := sysclip.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Terminal writes an OSC 52 sequence so the terminal emulator sets the
// clipboard. It works over SSH where no local utility exists.
type Terminal struct {
	Out io.Writer
}

// Write implements Writer.
func (t Terminal) Write(text string) error {
	if t.Out == nil {
		return ErrUnavailable
	}
	_, err := osc52.New(text).WriteTo(t.Out)
	return err
}

// Fallback tries each writer in order until one succeeds.
type Fallback []Writer

// Write implements Writer.
func (f Fallback) Write(text string) error {
	errs := make([]error, 0, len(f))
	for _, w := range f {
		err := w.Write(text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrUnavailable
	}
	return errors.Join(errs...)
}

// Copy writes text with w and reports whether it succeeded.
func Copy(w Writer, text string) bool {
	if w == nil {
		return false
	}
	return w.Write(text) == nil
}
