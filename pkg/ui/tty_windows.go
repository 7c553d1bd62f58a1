//go:build windows

package ui

import (
	"os"

	"github.com/pkg/errors"
)

func OpenTTY() (*os.File, error) {
	f, err := os.OpenFile("CONIN$", os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "could not open console input")
	}
	return f, nil
}
