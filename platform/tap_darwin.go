//go:build darwin

package platform

/*
#cgo LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework CoreFoundation

#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

extern CGEventRef flowTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFMachPortRef flowTapCreate(uintptr_t handle) {
	CGEventMask mask = CGEventMaskBit(kCGEventFlagsChanged) | CGEventMaskBit(kCGEventKeyDown);
	return CGEventTapCreate(kCGSessionEventTap,
	                        kCGHeadInsertEventTap,
	                        kCGEventTapOptionListenOnly,
	                        mask,
	                        flowTapCallback,
	                        (void *)handle);
}

static void flowTapEnable(CFMachPortRef tap, int enable) {
	CGEventTapEnable(tap, enable != 0);
}

static int flowTapIsEnabled(CFMachPortRef tap) {
	return CGEventTapIsEnabled(tap) ? 1 : 0;
}

static void flowTapRelease(CFMachPortRef tap, CFRunLoopSourceRef source) {
	if (source != NULL) {
		CFRelease(source);
	}
	if (tap != NULL) {
		CFRelease(tap);
	}
}

static int flowPreflightListenAccess(void) {
	return CGPreflightListenEventAccess() ? 1 : 0;
}

static int flowRequestListenAccess(void) {
	return CGRequestListenEventAccess() ? 1 : 0;
}
*/
import "C"

import (
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"

	"github.com/JasonLovesDoggo/Flow/capture"
)

// darwinBackend hosts a listen-only CGEventTap on a dedicated, locked OS
// thread running its own CFRunLoop.
type darwinBackend struct {
	mu        sync.Mutex
	emit      func(capture.RawEvent)
	handle    cgo.Handle
	tap       C.CFMachPortRef
	source    C.CFRunLoopSourceRef
	loop      C.CFRunLoopRef
	installed bool
}

// NewBackend returns the macOS event tap backend.
func NewBackend() capture.Backend {
	return &darwinBackend{}
}

// Permission checks Input Monitoring access. With prompt set it asks the OS
// to show the grant dialog; without it, it only reports current status.
func (b *darwinBackend) Permission(prompt bool) bool {
	if prompt {
		return C.flowRequestListenAccess() != 0
	}
	return C.flowPreflightListenAccess() != 0
}

func (b *darwinBackend) Install(emit func(capture.RawEvent)) error {
	b.mu.Lock()
	if b.installed {
		b.mu.Unlock()
		return nil
	}
	b.emit = emit
	b.handle = cgo.NewHandle(b)
	handle := b.handle
	b.mu.Unlock()

	ready := make(chan error, 1)
	go func() {
		// The tap and its run loop live on this thread for the lifetime
		// of the capture session.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		tap := C.flowTapCreate(C.uintptr_t(handle))
		if tap == nil {
			ready <- errors.New("CGEventTapCreate failed")
			return
		}
		source := C.CFMachPortCreateRunLoopSource(C.kCFAllocatorDefault, tap, 0)
		if source == nil {
			C.flowTapRelease(tap, nil)
			ready <- errors.New("CFMachPortCreateRunLoopSource failed")
			return
		}
		loop := C.CFRunLoopGetCurrent()
		C.CFRunLoopAddSource(loop, source, C.kCFRunLoopCommonModes)
		C.flowTapEnable(tap, 1)

		b.mu.Lock()
		b.tap, b.source, b.loop = tap, source, loop
		b.installed = true
		b.mu.Unlock()

		ready <- nil
		C.CFRunLoopRun()
	}()

	if err := <-ready; err != nil {
		b.mu.Lock()
		b.handle.Delete()
		b.handle = 0
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *darwinBackend) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tap == nil {
		return false
	}
	return C.flowTapIsEnabled(b.tap) != 0
}

// Enable removes and re-adds the run-loop source before re-enabling the
// tap; after a timeout disable, re-enabling alone is not always honored.
func (b *darwinBackend) Enable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tap == nil {
		return errors.New("tap not installed")
	}
	C.CFRunLoopRemoveSource(b.loop, b.source, C.kCFRunLoopCommonModes)
	C.CFRunLoopAddSource(b.loop, b.source, C.kCFRunLoopCommonModes)
	C.flowTapEnable(b.tap, 1)
	if C.flowTapIsEnabled(b.tap) == 0 {
		return errors.New("tap did not re-enable")
	}
	return nil
}

func (b *darwinBackend) Uninstall() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.installed {
		return
	}
	C.flowTapEnable(b.tap, 0)
	C.CFRunLoopStop(b.loop)
	C.flowTapRelease(b.tap, b.source)
	b.tap, b.source, b.loop = nil, nil, nil
	b.handle.Delete()
	b.handle = 0
	b.installed = false
}

// deliver pushes a raw event to the manager. Called from the tap thread;
// emit is non-blocking by contract.
func (b *darwinBackend) deliver(ev capture.RawEvent) {
	if b.emit != nil {
		b.emit(ev)
	}
}
