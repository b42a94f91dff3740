//go:build !unix

// Package stderr is a no-op where audio libraries do not write to fd 2.
package stderr

import (
	"os"

	"github.com/rs/zerolog"
)

// Capture does nothing on this platform.
type Capture struct{}

// Start returns a no-op capture.
func Start(zerolog.Logger) (*Capture, error) {
	return &Capture{}, nil
}

// WriteOriginal writes to stderr.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop does nothing.
func (c *Capture) Stop() {}
