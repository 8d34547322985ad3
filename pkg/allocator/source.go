package allocator

import "blockheap/pkg/brk"

// brkSource returns the production break source for this platform.
// pkg/brk exports NewLinuxSource under that name on every GOOS so
// callers never need their own build tag just to pick a Source.
func brkSource() brk.Source {
	return brk.NewLinuxSource()
}
