//go:build !darwin && !windows

package platform

import "github.com/JasonLovesDoggo/Flow/capture"

// stubBackend reports that no tap is available. The agent degrades to a
// clear startup error instead of silently doing nothing.
type stubBackend struct{}

// NewBackend returns the unsupported-platform stub.
func NewBackend() capture.Backend {
	return stubBackend{}
}

func (stubBackend) Permission(prompt bool) bool          { return true }
func (stubBackend) Install(func(capture.RawEvent)) error { return capture.ErrUnsupported }
func (stubBackend) Enabled() bool                        { return false }
func (stubBackend) Enable() error                        { return capture.ErrUnsupported }
func (stubBackend) Uninstall()                           {}
