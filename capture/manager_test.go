package capture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JasonLovesDoggo/Flow/hotkey"
)

const fnKeyCode = 0x3F

type fakeBackend struct {
	mu           sync.Mutex
	emit         func(RawEvent)
	permission   bool
	enabled      bool
	installCalls int
	enableCalls  int
	uninstalls   int
	installErr   error
	enableErr    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{permission: true}
}

func (b *fakeBackend) Permission(prompt bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.permission
}

func (b *fakeBackend) Install(emit func(RawEvent)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.installCalls++
	if b.installErr != nil {
		return b.installErr
	}
	b.emit = emit
	b.enabled = true
	return nil
}

func (b *fakeBackend) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *fakeBackend) Enable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enableCalls++
	if b.enableErr != nil {
		return b.enableErr
	}
	b.enabled = true
	return nil
}

func (b *fakeBackend) Uninstall() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uninstalls++
	b.enabled = false
}

func (b *fakeBackend) send(ev RawEvent) {
	b.mu.Lock()
	emit := b.emit
	b.mu.Unlock()
	if emit != nil {
		emit(ev)
	}
}

func (b *fakeBackend) setEnabled(v bool) {
	b.mu.Lock()
	b.enabled = v
	b.mu.Unlock()
}

func (b *fakeBackend) enables() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enableCalls
}

type fakeGuard struct {
	mu       sync.Mutex
	acquires int
	releases int
}

func (g *fakeGuard) Acquire(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquires++
}

func (g *fakeGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releases++
}

func waitTrigger(t *testing.T, m *Manager, want hotkey.Trigger) {
	t.Helper()
	select {
	case got := <-m.Triggers():
		if got != want {
			t.Fatalf("expected trigger %v, got %v", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for trigger %v", want)
	}
}

func waitDiagnostic(t *testing.T, m *Manager, kind DiagnosticKind) Diagnostic {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case d := <-m.Diagnostics():
			if d.Kind == kind {
				return d
			}
		case <-deadline:
			t.Fatalf("timed out waiting for diagnostic %s", kind)
		}
	}
}

func TestStartDeniedPermission(t *testing.T) {
	backend := newFakeBackend()
	backend.permission = false
	m := NewManager(hotkey.SpecialKey(fnKeyCode), backend, &fakeGuard{})

	active, err := m.Start(false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if active {
		t.Fatalf("expected capture to stay inactive without permission")
	}
	waitDiagnostic(t, m, DiagPermissionDenied)
	if m.Status().Active {
		t.Fatalf("status should report inactive")
	}
}

func TestStartInstallError(t *testing.T) {
	backend := newFakeBackend()
	backend.installErr = errors.New("boom")
	guard := &fakeGuard{}
	m := NewManager(hotkey.SpecialKey(fnKeyCode), backend, guard)

	if _, err := m.Start(false); err == nil {
		t.Fatalf("expected install error")
	}
	if guard.acquires != 0 {
		t.Fatalf("guard must not be acquired when install fails")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	backend := newFakeBackend()
	guard := &fakeGuard{}
	m := NewManager(hotkey.SpecialKey(fnKeyCode), backend, guard)

	for i := 0; i < 2; i++ {
		active, err := m.Start(false)
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if !active {
			t.Fatalf("start %d: expected active", i)
		}
	}
	if backend.installCalls != 1 {
		t.Fatalf("expected a single install, got %d", backend.installCalls)
	}
	if guard.acquires != 1 {
		t.Fatalf("expected a single guard acquire, got %d", guard.acquires)
	}

	m.Stop()
	m.Stop()
	if backend.uninstalls != 1 {
		t.Fatalf("expected a single uninstall, got %d", backend.uninstalls)
	}
	if guard.releases != 1 {
		t.Fatalf("expected a single guard release, got %d", guard.releases)
	}

	// A fresh start after stop installs a new tap.
	if _, err := m.Start(false); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if backend.installCalls != 2 {
		t.Fatalf("expected reinstall, got %d installs", backend.installCalls)
	}
	m.Stop()
}

func TestTriggerDelivery(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(hotkey.SpecialKey(fnKeyCode), backend, &fakeGuard{})
	if _, err := m.Start(false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	backend.send(RawEvent{Type: EventFlagsChanged, Flags: hotkey.ModFn})
	waitTrigger(t, m, hotkey.TriggerPressed)

	backend.send(RawEvent{Type: EventFlagsChanged})
	waitTrigger(t, m, hotkey.TriggerReleased)
}

func TestRestartRateLimit(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(hotkey.SpecialKey(fnKeyCode), backend, &fakeGuard{})

	// Freeze the clock so every disable notification lands inside the
	// one-second window.
	frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return frozen }

	if _, err := m.Start(false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	for i := 0; i < 6; i++ {
		backend.send(RawEvent{Type: EventDisabledByTimeout})
	}

	waitDiagnostic(t, m, DiagRestartExhausted)
	if got := backend.enables(); got != maxRestarts {
		t.Fatalf("expected %d restart attempts, got %d", maxRestarts, got)
	}
	if !m.Status().Exhausted {
		t.Fatalf("status should report exhausted")
	}
}

func TestRestartBudgetResetsAfterQuietPeriod(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(hotkey.SpecialKey(fnKeyCode), backend, &fakeGuard{})

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	if _, err := m.Start(false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	for i := 0; i < 6; i++ {
		backend.send(RawEvent{Type: EventDisabledByTimeout})
	}
	waitDiagnostic(t, m, DiagRestartExhausted)

	// A disable notification arriving well after the burst gets a fresh
	// budget.
	mu.Lock()
	now = now.Add(2 * time.Second)
	mu.Unlock()
	backend.send(RawEvent{Type: EventDisabledByFlood})
	waitDiagnostic(t, m, DiagTapRestarted)

	if got := backend.enables(); got != maxRestarts+1 {
		t.Fatalf("expected %d restart attempts, got %d", maxRestarts+1, got)
	}
}

func TestHealthCheckRestartsDisabledTap(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(hotkey.SpecialKey(fnKeyCode), backend, &fakeGuard{})
	if _, err := m.Start(false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	backend.setEnabled(false)
	waitDiagnostic(t, m, DiagTapRestarted)

	if !backend.Enabled() {
		t.Fatalf("expected health check to re-enable the tap")
	}
}

func TestUpdateDefinitionResetsState(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(hotkey.ModifierOnly(hotkey.ModShift), backend, &fakeGuard{})
	if _, err := m.Start(false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	backend.send(RawEvent{Type: EventFlagsChanged, Flags: hotkey.ModShift})
	waitTrigger(t, m, hotkey.TriggerPressed)

	m.UpdateDefinition(hotkey.ModifierOnly(hotkey.ModControl))
	waitDiagnostic(t, m, DiagDefinitionChanged)

	// The old hold was cleared by the swap: releasing shift emits nothing,
	// pressing the new modifier starts a fresh hold.
	backend.send(RawEvent{Type: EventFlagsChanged})
	backend.send(RawEvent{Type: EventFlagsChanged, Flags: hotkey.ModControl})
	waitTrigger(t, m, hotkey.TriggerPressed)

	if got := m.Status().Hotkey; got != hotkey.ModControl.String() {
		t.Fatalf("status hotkey = %q, want %q", got, hotkey.ModControl.String())
	}
}
