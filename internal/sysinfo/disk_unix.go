//go:build linux || darwin

package sysinfo

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// diskPercent returns used space like df: used / (used + available to users).
func diskPercent(path string) (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := float64(st.Bsize)
	used := float64(st.Blocks-st.Bfree) * bsize
	avail := float64(st.Bavail) * bsize
	if used+avail == 0 {
		return 0, nil
	}
	return clamp(used / (used + avail) * 100), nil
}
