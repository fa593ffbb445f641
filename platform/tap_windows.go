//go:build windows

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/JasonLovesDoggo/Flow/capture"
	"github.com/JasonLovesDoggo/Flow/hotkey"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	peekMessage         = user32.NewProc("PeekMessageW")
)

const (
	whKeyboardLL = 13
	wmKeydown    = 0x0100
	wmKeyup      = 0x0101
	wmSyskeydown = 0x0104
	wmSyskeyup   = 0x0105
	pmRemove     = 0x0001
)

const (
	vkShift  = 0x10
	vkCtrl   = 0x11
	vkAlt    = 0x12
	vkLwin   = 0x5B
	vkRwin   = 0x5C
	vkLshift = 0xA0
	vkRshift = 0xA1
	vkLctrl  = 0xA2
	vkRctrl  = 0xA3
	vkLalt   = 0xA4
	vkRalt   = 0xA5
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// windowsBackend hosts a WH_KEYBOARD_LL hook on a dedicated OS thread. The
// hook sees plain key up/down events, so modifier-change events are
// synthesized from the modifier virtual keys.
type windowsBackend struct {
	mu        sync.Mutex
	emit      func(capture.RawEvent)
	hook      uintptr
	done      chan struct{}
	installed bool

	// mods is touched only from the hook thread.
	mods hotkey.Modifiers
}

// NewBackend returns the Windows keyboard hook backend.
func NewBackend() capture.Backend {
	return &windowsBackend{}
}

// Permission always reports granted: low-level hooks need no OS consent.
func (b *windowsBackend) Permission(prompt bool) bool {
	return true
}

func (b *windowsBackend) Install(emit func(capture.RawEvent)) error {
	b.mu.Lock()
	if b.installed {
		b.mu.Unlock()
		return nil
	}
	b.emit = emit
	b.mu.Unlock()

	if err := b.startHook(); err != nil {
		return err
	}

	b.mu.Lock()
	b.installed = true
	b.mu.Unlock()
	return nil
}

func (b *windowsBackend) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hook != 0
}

// Enable reinstalls the hook on a fresh thread. Windows removes hooks whose
// callbacks exceed the LowLevelHooksTimeout budget.
func (b *windowsBackend) Enable() error {
	b.mu.Lock()
	if !b.installed {
		b.mu.Unlock()
		return errors.New("hook not installed")
	}
	if b.hook != 0 {
		b.mu.Unlock()
		return nil
	}
	if b.done != nil {
		close(b.done)
		b.done = nil
	}
	b.mu.Unlock()

	return b.startHook()
}

func (b *windowsBackend) Uninstall() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.installed {
		return
	}
	if b.done != nil {
		close(b.done)
		b.done = nil
	}
	b.installed = false
}

func (b *windowsBackend) startHook() error {
	done := make(chan struct{})
	b.mu.Lock()
	b.done = done
	b.mu.Unlock()

	errCh := make(chan error, 1)
	go b.runHook(done, errCh)
	return <-errCh
}

func (b *windowsBackend) runHook(done chan struct{}, errCh chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hookProc := func(nCode int32, wParam uintptr, lParam uintptr) uintptr {
		if nCode >= 0 {
			info := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			b.handleKey(wParam, info)
		}
		r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return r
	}

	hook, _, err := setWindowsHookEx.Call(
		whKeyboardLL,
		windows.NewCallback(hookProc),
		0,
		0,
	)
	if hook == 0 {
		errCh <- fmt.Errorf("SetWindowsHookEx failed: %w", err)
		return
	}

	b.mu.Lock()
	b.hook = hook
	b.mu.Unlock()
	errCh <- nil

	// Message loop keeps the hook alive on this thread.
	var m msg
	for {
		select {
		case <-done:
			unhookWindowsHookEx.Call(hook)
			b.mu.Lock()
			if b.hook == hook {
				b.hook = 0
			}
			b.mu.Unlock()
			return
		default:
			r, _, _ := peekMessage.Call(
				uintptr(unsafe.Pointer(&m)),
				0,
				0,
				0,
				pmRemove,
			)
			if r != 0 {
				continue
			}
			runtime.Gosched()
		}
	}
}

// handleKey classifies a hook event. Must return quickly; Windows enforces
// a latency budget on low-level hook callbacks.
func (b *windowsBackend) handleKey(wParam uintptr, info *kbdllhookstruct) {
	isDown := wParam == wmKeydown || wParam == wmSyskeydown

	if mod, ok := modifierFor(info.vkCode); ok {
		if isDown {
			b.mods |= mod
		} else {
			b.mods &^= mod
		}
		b.deliver(capture.RawEvent{
			Type:    capture.EventFlagsChanged,
			KeyCode: uint16(info.vkCode),
			Flags:   b.mods,
		})
		return
	}

	if isDown {
		b.deliver(capture.RawEvent{
			Type:    capture.EventKeyDown,
			KeyCode: uint16(info.vkCode),
			Flags:   b.mods,
		})
	}
}

func (b *windowsBackend) deliver(ev capture.RawEvent) {
	if b.emit != nil {
		b.emit(ev)
	}
}

func modifierFor(vk uint32) (hotkey.Modifiers, bool) {
	switch vk {
	case vkShift, vkLshift, vkRshift:
		return hotkey.ModShift, true
	case vkCtrl, vkLctrl, vkRctrl:
		return hotkey.ModControl, true
	case vkAlt, vkLalt, vkRalt:
		return hotkey.ModOption, true
	case vkLwin, vkRwin:
		return hotkey.ModCommand, true
	}
	return 0, false
}
