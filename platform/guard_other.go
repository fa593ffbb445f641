//go:build !darwin && !windows

package platform

import "github.com/JasonLovesDoggo/Flow/capture"

// noopGuard: nothing to hold on platforms without a tap backend.
type noopGuard struct{}

// NewSuspensionGuard returns a no-op guard.
func NewSuspensionGuard() capture.SuspensionGuard {
	return noopGuard{}
}

func (noopGuard) Acquire(reason string) {}
func (noopGuard) Release()              {}
