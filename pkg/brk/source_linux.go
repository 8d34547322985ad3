//go:build linux

package brk

import "syscall"

// LinuxSource issues the real brk(2) syscall directly: a bare
// syscall.Syscall call, no cgo.
type LinuxSource struct{}

// NewLinuxSource returns the production Source for this platform.
func NewLinuxSource() Source { return LinuxSource{} }

func (LinuxSource) RawBrk(addr uintptr) (uintptr, error) {
	got, _, errno := syscall.Syscall(syscall.SYS_BRK, addr, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return got, nil
}
