package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JasonLovesDoggo/Flow/hotkey"
)

const (
	// healthInterval is how often the worker verifies the tap is still
	// enabled. The OS disables taps silently, so polling is the only way
	// to notice outside the synthetic disable notifications.
	healthInterval = time.Second

	// restartWindow and maxRestarts bound the automatic re-enable work:
	// restarts spaced at least restartWindow apart reset the budget, and
	// maxRestarts in quick succession marks the tap unhealthy.
	restartWindow = time.Second
	maxRestarts   = 5

	rawQueueSize     = 128
	triggerQueueSize = 16
	diagQueueSize    = 64
)

// tapHealth tracks the restart rate limit. Owned by the worker goroutine.
type tapHealth struct {
	restartCount  int
	lastRestartAt time.Time
}

// allow reports whether an automatic restart may happen now, recording the
// attempt. A previous attempt at least restartWindow ago resets the count.
func (h *tapHealth) allow(now time.Time) bool {
	if !h.lastRestartAt.IsZero() && now.Sub(h.lastRestartAt) >= restartWindow {
		h.restartCount = 0
	}
	if h.restartCount >= maxRestarts {
		return false
	}
	h.restartCount++
	h.lastRestartAt = now
	return true
}

// Status is a point-in-time snapshot of the capture subsystem.
type Status struct {
	Active    bool   `json:"active"`
	Exhausted bool   `json:"exhausted"`
	Restarts  uint64 `json:"restarts"`
	Hotkey    string `json:"hotkey"`
}

type command struct {
	def hotkey.Definition
}

// Manager owns the OS tap handle, the worker goroutine that hosts the
// hotkey state machine and the 1-second health check, and the suspension
// guard. Start, Stop and UpdateDefinition are safe to call from any
// goroutine at any time.
type Manager struct {
	backend Backend
	guard   SuspensionGuard

	triggers chan hotkey.Trigger
	diags    chan Diagnostic

	restarts  atomic.Uint64
	exhausted atomic.Bool

	// now is replaceable in tests.
	now func() time.Time

	mu      sync.Mutex
	started bool
	def     hotkey.Definition
	cmds    chan command
	done    chan struct{}
	raw     chan RawEvent
}

// NewManager creates a capture manager for the given definition. Nothing
// runs until Start.
func NewManager(def hotkey.Definition, backend Backend, guard SuspensionGuard) *Manager {
	return &Manager{
		backend:  backend,
		guard:    guard,
		def:      def,
		triggers: make(chan hotkey.Trigger, triggerQueueSize),
		diags:    make(chan Diagnostic, diagQueueSize),
		now:      time.Now,
	}
}

// Triggers returns the channel on which activations are delivered. The
// worker never blocks on it; if the consumer falls behind, triggers are
// dropped rather than stalling the tap.
func (m *Manager) Triggers() <-chan hotkey.Trigger {
	return m.triggers
}

// Diagnostics returns the channel of capture health events.
func (m *Manager) Diagnostics() <-chan Diagnostic {
	return m.diags
}

// Status reports the current capture state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Active:    m.started,
		Exhausted: m.exhausted.Load(),
		Restarts:  m.restarts.Load(),
		Hotkey:    m.def.String(),
	}
}

// Start requests the capture permission (prompting the user if prompt is
// set), installs the tap and spawns the worker. It returns true if a tap is
// now active, including when one already was, and false when permission is
// denied. Errors are reserved for tap installation failures.
func (m *Manager) Start(prompt bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return true, nil
	}

	if !m.backend.Permission(prompt) {
		m.diagnostic(DiagPermissionDenied, "denied", "")
		return false, nil
	}

	raw := make(chan RawEvent, rawQueueSize)
	emit := func(ev RawEvent) {
		// Tap callback path: hand off and return, never block.
		select {
		case raw <- ev:
		default:
		}
	}
	if err := m.backend.Install(emit); err != nil {
		return false, fmt.Errorf("install tap: %w", err)
	}

	m.guard.Acquire("hotkey capture: " + m.def.String())
	m.exhausted.Store(false)

	m.raw = raw
	m.cmds = make(chan command, 8)
	m.done = make(chan struct{})
	m.started = true

	go m.run(m.def, raw, m.cmds, m.done)

	m.diagnostic(DiagTapStarted, "ok", m.def.String())
	return true, nil
}

// Stop disables the tap, tears down the worker and releases the suspension
// guard. Idempotent.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return
	}

	close(m.done)
	m.backend.Uninstall()
	m.guard.Release()
	m.started = false

	m.diagnostic(DiagTapStopped, "ok", "")
}

// UpdateDefinition replaces the active hotkey definition. The swap is
// routed through the worker's command queue so the state reset happens
// atomically with respect to in-flight event processing; the tap itself is
// untouched.
func (m *Manager) UpdateDefinition(def hotkey.Definition) {
	m.mu.Lock()
	m.def = def
	cmds, done, started := m.cmds, m.done, m.started
	m.mu.Unlock()

	if !started {
		return
	}
	select {
	case cmds <- command{def: def}:
	case <-done:
	}
}

// run is the worker: the single execution context that owns the state
// machine, the restart budget and the health check.
func (m *Manager) run(def hotkey.Definition, raw <-chan RawEvent, cmds <-chan command, done <-chan struct{}) {
	machine := hotkey.NewMachine(def, m.dispatch)
	machine.OnStaleRecovery = func(held time.Duration) {
		m.diagnostic(DiagStaleHoldRecover, "recovered", fmt.Sprintf("held %s", held.Round(time.Millisecond)))
	}

	health := &tapHealth{}
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case cmd := <-cmds:
			machine.Reset(cmd.def)
			m.diagnostic(DiagDefinitionChanged, "ok", cmd.def.String())
		case ev := <-raw:
			switch ev.Type {
			case EventFlagsChanged:
				machine.HandleFlagsChanged(ev.Flags)
			case EventKeyDown:
				machine.HandleKeyDown(ev.KeyCode, ev.Flags)
			case EventDisabledByTimeout:
				m.restartTap(health, "disabled_by_timeout")
			case EventDisabledByFlood:
				m.restartTap(health, "disabled_by_flood")
			}
		case <-ticker.C:
			if !m.backend.Enabled() {
				m.restartTap(health, "health_check")
			}
		}
	}
}

// restartTap re-enables a disabled tap under the rate-limit policy.
func (m *Manager) restartTap(health *tapHealth, cause string) {
	if !health.allow(m.now()) {
		// Budget exhausted: capture stays nominally started but is
		// non-functional until the caller cycles Stop/Start.
		if m.exhausted.CompareAndSwap(false, true) {
			m.diagnostic(DiagRestartExhausted, "suppressed", cause)
		}
		return
	}

	m.restarts.Add(1)
	if err := m.backend.Enable(); err != nil {
		m.diagnostic(DiagTapRestarted, "failed", fmt.Sprintf("%s: %v", cause, err))
		return
	}
	m.exhausted.Store(false)
	m.diagnostic(DiagTapRestarted, "ok", cause)
}

// dispatch hands a trigger to the consumer without ever blocking the
// worker.
func (m *Manager) dispatch(t hotkey.Trigger) {
	select {
	case m.triggers <- t:
	default:
		slog.Warn("Trigger dropped, consumer not keeping up", "trigger", t.String())
	}
}

// diagnostic logs a health event and forwards it to the diagnostics
// channel, dropping it if nobody is draining.
func (m *Manager) diagnostic(kind DiagnosticKind, outcome, detail string) {
	d := Diagnostic{Kind: kind, Time: m.now(), Outcome: outcome, Detail: detail}

	level := slog.LevelInfo
	switch kind {
	case DiagStaleHoldRecover:
		level = slog.LevelDebug
	case DiagPermissionDenied, DiagRestartExhausted:
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "Capture event", "kind", string(kind), "outcome", outcome, "detail", detail)

	select {
	case m.diags <- d:
	default:
	}
}
