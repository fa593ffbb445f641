package capture

import (
	"errors"

	"github.com/JasonLovesDoggo/Flow/hotkey"
)

// ErrUnsupported is returned by Install on platforms without a tap backend.
var ErrUnsupported = errors.New("global input capture is not supported on this platform")

// EventType classifies a raw event delivered by the OS tap.
type EventType int

const (
	// EventFlagsChanged is a modifier-state change.
	EventFlagsChanged EventType = iota
	// EventKeyDown is a non-modifier key press.
	EventKeyDown
	// EventDisabledByTimeout is the synthetic notification the OS delivers
	// when it disables a tap whose callback was too slow.
	EventDisabledByTimeout
	// EventDisabledByFlood is the synthetic notification delivered when the
	// OS disables a tap that observed too high an event volume.
	EventDisabledByFlood
)

// RawEvent is a classified OS input event.
type RawEvent struct {
	Type    EventType
	KeyCode uint16
	Flags   hotkey.Modifiers
}

// Backend owns the OS-level tap handle and its event-loop thread.
type Backend interface {
	// Permission reports whether global input capture is granted,
	// optionally prompting the user. With prompt=false it must never
	// block on user interaction.
	Permission(prompt bool) bool

	// Install creates and enables the tap. emit is invoked from the
	// backend's event-loop thread; it must return quickly and never
	// block, since the OS enforces a latency budget on the callback.
	Install(emit func(RawEvent)) error

	// Enabled reports whether the tap is currently enabled.
	Enabled() bool

	// Enable re-adds the tap's event-loop source and re-enables it after
	// the OS disabled it.
	Enable() error

	// Uninstall disables the tap and tears down its event loop. Safe to
	// call without a prior Install.
	Uninstall()
}

// SuspensionGuard holds the system-level "stay responsive" tokens that keep
// the capture thread from being throttled or suspended while a tap is live.
type SuspensionGuard interface {
	Acquire(reason string)
	// Release drops all held tokens. Idempotent; safe without a prior
	// Acquire.
	Release()
}
