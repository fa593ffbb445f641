//go:build windows

package platform

import (
	"log/slog"
	"sync"

	"golang.org/x/sys/windows"

	"github.com/JasonLovesDoggo/Flow/capture"
)

var (
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	setThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

const (
	esContinuous     = 0x80000000
	esSystemRequired = 0x00000001
)

// windowsGuard keeps the system from idling to sleep while capture is
// active via SetThreadExecutionState.
type windowsGuard struct {
	mu   sync.Mutex
	held bool
}

// NewSuspensionGuard returns the Windows suspension guard.
func NewSuspensionGuard() capture.SuspensionGuard {
	return &windowsGuard{}
}

func (g *windowsGuard) Acquire(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return
	}
	setThreadExecutionState.Call(uintptr(esContinuous | esSystemRequired))
	g.held = true
	slog.Debug("Suspension guard acquired", "reason", reason)
}

func (g *windowsGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.held {
		return
	}
	setThreadExecutionState.Call(uintptr(esContinuous))
	g.held = false
	slog.Debug("Suspension guard released")
}
