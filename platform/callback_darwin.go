//go:build darwin

package platform

/*
#include <ApplicationServices/ApplicationServices.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/JasonLovesDoggo/Flow/capture"
	"github.com/JasonLovesDoggo/Flow/hotkey"
)

// flowTapCallback is the CGEventTap callback. The OS measures its latency
// and disables slow taps, so it only classifies the event and hands it off.
//
//export flowTapCallback
func flowTapCallback(_ C.CGEventTapProxy, typ C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	b, ok := cgo.Handle(uintptr(userInfo)).Value().(*darwinBackend)
	if !ok {
		return event
	}

	switch typ {
	case C.kCGEventTapDisabledByTimeout:
		b.deliver(capture.RawEvent{Type: capture.EventDisabledByTimeout})
	case C.kCGEventTapDisabledByUserInput:
		b.deliver(capture.RawEvent{Type: capture.EventDisabledByFlood})
	case C.kCGEventFlagsChanged:
		b.deliver(capture.RawEvent{
			Type:    capture.EventFlagsChanged,
			KeyCode: uint16(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode)),
			Flags:   convertFlags(C.CGEventGetFlags(event)),
		})
	case C.kCGEventKeyDown:
		b.deliver(capture.RawEvent{
			Type:    capture.EventKeyDown,
			KeyCode: uint16(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode)),
			Flags:   convertFlags(C.CGEventGetFlags(event)),
		})
	}
	// Listen-only tap: the return value is ignored by the OS.
	return event
}

func convertFlags(flags C.CGEventFlags) hotkey.Modifiers {
	var m hotkey.Modifiers
	if flags&C.kCGEventFlagMaskShift != 0 {
		m |= hotkey.ModShift
	}
	if flags&C.kCGEventFlagMaskControl != 0 {
		m |= hotkey.ModControl
	}
	if flags&C.kCGEventFlagMaskAlternate != 0 {
		m |= hotkey.ModOption
	}
	if flags&C.kCGEventFlagMaskCommand != 0 {
		m |= hotkey.ModCommand
	}
	if flags&C.kCGEventFlagMaskSecondaryFn != 0 {
		m |= hotkey.ModFn
	}
	return m
}
