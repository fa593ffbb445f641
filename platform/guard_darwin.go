//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework IOKit -framework Foundation -framework CoreFoundation

#include <stdlib.h>
#include <IOKit/pwr_mgt/IOPMLib.h>
#include <Foundation/Foundation.h>

static IOPMAssertionID flowCreateAssertion(const char *reason) {
	CFStringRef r = CFStringCreateWithCString(kCFAllocatorDefault, reason, kCFStringEncodingUTF8);
	IOPMAssertionID assertion = kIOPMNullAssertionID;
	IOReturn ret = IOPMAssertionCreateWithName(kIOPMAssertionTypePreventUserIdleSystemSleep,
	                                           kIOPMAssertionLevelOn, r, &assertion);
	CFRelease(r);
	if (ret != kIOReturnSuccess) {
		return kIOPMNullAssertionID;
	}
	return assertion;
}

static void flowReleaseAssertion(IOPMAssertionID assertion) {
	if (assertion != kIOPMNullAssertionID) {
		IOPMAssertionRelease(assertion);
	}
}

static void *flowBeginActivity(const char *reason) {
	NSString *r = [NSString stringWithUTF8String:reason];
	id<NSObject> token = [[NSProcessInfo processInfo]
	    beginActivityWithOptions:(NSActivityUserInitiated | NSActivityLatencyCritical)
	                      reason:r];
	return (__bridge_retained void *)token;
}

static void flowEndActivity(void *token) {
	if (token == NULL) {
		return;
	}
	id<NSObject> t = (__bridge_transfer id<NSObject>)token;
	[[NSProcessInfo processInfo] endActivity:t];
}
*/
import "C"

import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/JasonLovesDoggo/Flow/capture"
)

// darwinGuard holds both an NSProcessInfo user-initiated latency-critical
// activity and an IOKit sleep assertion. App Nap suspending the tap thread
// is indistinguishable from a hang and gets the tap disabled, so both
// tokens are taken while capture is live.
type darwinGuard struct {
	mu        sync.Mutex
	held      bool
	assertion C.IOPMAssertionID
	activity  unsafe.Pointer
}

// NewSuspensionGuard returns the macOS suspension guard.
func NewSuspensionGuard() capture.SuspensionGuard {
	return &darwinGuard{}
}

func (g *darwinGuard) Acquire(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return
	}

	creason := C.CString(reason)
	defer C.free(unsafe.Pointer(creason))

	g.activity = C.flowBeginActivity(creason)
	g.assertion = C.flowCreateAssertion(creason)
	if g.assertion == C.kIOPMNullAssertionID {
		slog.Warn("Sleep assertion not granted", "reason", reason)
	}
	g.held = true
	slog.Debug("Suspension guard acquired", "reason", reason)
}

func (g *darwinGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.held {
		return
	}
	C.flowReleaseAssertion(g.assertion)
	g.assertion = C.kIOPMNullAssertionID
	C.flowEndActivity(g.activity)
	g.activity = nil
	g.held = false
	slog.Debug("Suspension guard released")
}
