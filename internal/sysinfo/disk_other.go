//go:build !linux && !darwin

package sysinfo

import "errors"

func diskPercent(string) (float64, error) {
	return 0, errors.New("disk usage not supported on this platform")
}
