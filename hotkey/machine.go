package hotkey

import "time"

// staleHoldTimeout is how long a tracked hold may persist before we assume
// the release event was missed (e.g. the tap was disabled mid-hold) and
// force the state back to idle.
const staleHoldTimeout = 5 * time.Second

// keyState tracks the press/hold state of the watched key for the
// SpecialKey and ModifierOnly kinds.
type keyState struct {
	isDown       bool
	usedAsCombo  bool // key was held while another key/modifier activated
	firedPressed bool // a press trigger was emitted for the current hold
	pressedAt    time.Time
}

func (s *keyState) reset() {
	s.isDown = false
	s.usedAsCombo = false
	s.firedPressed = false
	s.pressedAt = time.Time{}
}

// Machine converts classified raw events into Trigger values according to
// the active Definition. It is not safe for concurrent use; all calls must
// come from the capture worker.
type Machine struct {
	def   Definition
	emit  func(Trigger)
	state keyState

	// OnStaleRecovery, when set, is called with the hold duration every
	// time a stale hold is forced back to idle.
	OnStaleRecovery func(held time.Duration)

	// clock is replaceable in tests.
	clock func() time.Time
}

// NewMachine creates a state machine that reports triggers through emit.
func NewMachine(def Definition, emit func(Trigger)) *Machine {
	return &Machine{
		def:   def,
		emit:  emit,
		clock: time.Now,
	}
}

// Definition returns the active hotkey definition.
func (m *Machine) Definition() Definition {
	return m.def
}

// Reset swaps the active definition and clears all transient state. No
// stale flags survive a definition change.
func (m *Machine) Reset(def Definition) {
	m.def = def
	m.state.reset()
}

// HandleFlagsChanged processes a modifier-change event.
func (m *Machine) HandleFlagsChanged(flags Modifiers) {
	m.recoverStale()

	switch m.def.Kind {
	case KindSpecialKey:
		m.transition(flags.Has(ModFn), false)
	case KindModifierOnly:
		hasKey := flags.Has(m.def.Modifier)
		others := flags.Standard() &^ m.def.Modifier
		// Another modifier joining mid-hold means this is a chord
		// (e.g. ctrl+shift), not a standalone activation.
		if m.state.isDown && hasKey && others != 0 {
			m.state.usedAsCombo = true
		}
		m.transition(hasKey, others != 0)
	case KindCustom:
		// Custom chords are matched on key-down only.
	}
}

// HandleKeyDown processes a key-down event carrying the live modifier flags.
func (m *Machine) HandleKeyDown(code uint16, flags Modifiers) {
	m.recoverStale()

	switch m.def.Kind {
	case KindSpecialKey:
		// A key pressed while the special key is asserted is an OS-level
		// shortcut using it as a modifier; its release must not trigger.
		if m.state.isDown && flags.Has(ModFn) && code != m.def.KeyCode {
			m.state.usedAsCombo = true
		}
	case KindModifierOnly:
		if m.state.isDown && flags.Has(m.def.Modifier) {
			m.state.usedAsCombo = true
		}
	case KindCustom:
		if code == m.def.KeyCode && flags.Standard() == m.def.Mods.Standard() {
			m.emit(TriggerToggled)
		}
	}
}

// transition applies the shared press/release edge logic. suppressPress
// holds when other modifiers are already asserted at the press instant, in
// which case the hold is part of a chord from the start and never fires.
func (m *Machine) transition(hasKey, suppressPress bool) {
	st := &m.state
	if hasKey == st.isDown {
		return
	}

	if hasKey {
		if suppressPress {
			return
		}
		st.isDown = true
		st.pressedAt = m.clock()
		st.usedAsCombo = false
		st.firedPressed = true
		m.emit(TriggerPressed)
		return
	}

	if st.firedPressed && !st.usedAsCombo {
		m.emit(TriggerReleased)
	}
	st.reset()
}

// recoverStale forces an implausibly long hold back to idle without
// emitting a trigger, on the theory that the release event was missed.
// Runs ahead of every transition.
func (m *Machine) recoverStale() {
	if m.def.Kind == KindCustom {
		return
	}
	st := &m.state
	if !st.isDown || st.pressedAt.IsZero() {
		return
	}
	held := m.clock().Sub(st.pressedAt)
	if held <= staleHoldTimeout {
		return
	}
	st.reset()
	if m.OnStaleRecovery != nil {
		m.OnStaleRecovery(held)
	}
}
