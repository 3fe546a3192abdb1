//go:build !linux && !windows

package eventsink

// Thread ids are not exposed on this platform.
func currentThreadID() int {
	return 0
}
