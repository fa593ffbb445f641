package hotkey

import (
	"fmt"
	"strings"
)

// Modifiers is a bitset of modifier flags as reported by the OS tap.
type Modifiers uint16

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModOption  // Alt on Windows/Linux
	ModCommand // Win/Super on Windows/Linux
	ModFn      // dedicated function/globe key, where the platform reports one
)

// Has reports whether all bits of f are set in m.
func (m Modifiers) Has(f Modifiers) bool {
	return m&f == f
}

// Standard returns m restricted to the four standard modifiers, dropping
// the fn bit so exact-set comparisons are not tripped up by it.
func (m Modifiers) Standard() Modifiers {
	return m & (ModShift | ModControl | ModOption | ModCommand)
}

func (m Modifiers) String() string {
	var parts []string
	if m.Has(ModControl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(ModOption) {
		parts = append(parts, "alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	if m.Has(ModCommand) {
		parts = append(parts, "cmd")
	}
	if m.Has(ModFn) {
		parts = append(parts, "fn")
	}
	return strings.Join(parts, "+")
}

// Kind selects which activation style a Definition describes.
type Kind int

const (
	// KindSpecialKey listens for a dedicated function-style key reported
	// through modifier-change events (e.g. the fn/globe key).
	KindSpecialKey Kind = iota
	// KindModifierOnly listens for a single modifier pressed on its own.
	KindModifierOnly
	// KindCustom listens for an exact key code plus an exact modifier set.
	KindCustom
)

// Definition describes what the capture subsystem listens for. Exactly one
// definition is active at a time; swapping it resets all transient state.
type Definition struct {
	Kind     Kind
	Modifier Modifiers // KindModifierOnly: the single modifier to watch
	KeyCode  uint16    // KindCustom: exact key code; KindSpecialKey: the key's own code
	Mods     Modifiers // KindCustom: exact modifier set that must be held
	Label    string    // display name, e.g. "fn" or "ctrl+shift+v"
}

// SpecialKey returns a definition for a dedicated function-style key.
func SpecialKey(code uint16) Definition {
	return Definition{Kind: KindSpecialKey, KeyCode: code, Label: "fn"}
}

// ModifierOnly returns a definition for a lone modifier hotkey.
func ModifierOnly(mod Modifiers) Definition {
	return Definition{Kind: KindModifierOnly, Modifier: mod, Label: mod.String()}
}

// Custom returns a definition for an exact key+modifier chord.
func Custom(code uint16, mods Modifiers, label string) Definition {
	return Definition{Kind: KindCustom, KeyCode: code, Mods: mods, Label: label}
}

func (d Definition) String() string {
	if d.Label != "" {
		return d.Label
	}
	switch d.Kind {
	case KindSpecialKey:
		return "fn"
	case KindModifierOnly:
		return d.Modifier.String()
	default:
		return fmt.Sprintf("%s+%d", d.Mods.String(), d.KeyCode)
	}
}

// Trigger is the normalized output signal consumed by the application.
type Trigger int

const (
	TriggerPressed Trigger = iota
	TriggerReleased
	TriggerToggled
)

func (t Trigger) String() string {
	switch t {
	case TriggerPressed:
		return "pressed"
	case TriggerReleased:
		return "released"
	case TriggerToggled:
		return "toggled"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}
