//go:build windows

package eventsink

import "golang.org/x/sys/windows"

func currentThreadID() int {
	return int(windows.GetCurrentThreadId())
}
