//go:build linux

package kernel

import (
	"golang.org/x/sys/unix"
)

// Release returns the running kernel release from uname(2).
func Release() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uts.Release[:]), nil
}
