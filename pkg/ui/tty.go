//go:build !windows

package ui

import (
	"os"

	"github.com/pkg/errors"
)

// OpenTTY opens the controlling terminal, for when stdin is redirected but the
// UI should still read the keyboard.
func OpenTTY() (*os.File, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "could not open /dev/tty")
	}
	return f, nil
}
