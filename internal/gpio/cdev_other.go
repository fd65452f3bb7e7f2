//go:build !linux

package gpio

import "errors"

// NewCdev is not available on non-Linux platforms.
func NewCdev(_ string) (Backend, error) {
	return nil, errors.New("gpio: character device not supported on this platform (requires Linux)")
}
