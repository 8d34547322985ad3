//go:build !linux

package brk

// OtherSource reports ErrUnsupported: the classic brk/sbrk syscalls
// only remain meaningful on Linux. Hosts that need this allocator on
// another OS must supply their own Source (e.g. one backed by mmap).
type OtherSource struct{}

// NewLinuxSource keeps the constructor name stable across platforms so
// callers don't need a build tag of their own.
func NewLinuxSource() Source { return OtherSource{} }

func (OtherSource) RawBrk(uintptr) (uintptr, error) {
	return 0, ErrUnsupported
}
