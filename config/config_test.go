package config

import (
	"testing"

	"github.com/JasonLovesDoggo/Flow/hotkey"
)

func TestParseHotkeyDefaultsToFn(t *testing.T) {
	for _, mode := range []string{"", "fn", "FN", " fn "} {
		p, err := ParseHotkey(HotkeyConfig{Mode: mode})
		if err != nil {
			t.Fatalf("mode %q: %v", mode, err)
		}
		if p.Mode != "fn" || p.Label != "fn" {
			t.Fatalf("mode %q: got %+v", mode, p)
		}
	}
}

func TestParseHotkeyModifier(t *testing.T) {
	tests := []struct {
		name string
		want hotkey.Modifiers
	}{
		{"ctrl", hotkey.ModControl},
		{"control", hotkey.ModControl},
		{"shift", hotkey.ModShift},
		{"alt", hotkey.ModOption},
		{"option", hotkey.ModOption},
		{"cmd", hotkey.ModCommand},
		{"win", hotkey.ModCommand},
	}
	for _, tt := range tests {
		p, err := ParseHotkey(HotkeyConfig{Mode: "modifier", Modifier: tt.name})
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if p.Modifier != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, p.Modifier, tt.want)
		}
	}

	if _, err := ParseHotkey(HotkeyConfig{Mode: "modifier", Modifier: "hyper"}); err == nil {
		t.Fatalf("expected error for unknown modifier")
	}
}

func TestParseHotkeyCustom(t *testing.T) {
	p, err := ParseHotkey(HotkeyConfig{Mode: "custom", Combo: "Cmd+Shift+V"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Mods != hotkey.ModCommand|hotkey.ModShift {
		t.Fatalf("mods = %v", p.Mods)
	}
	if p.Key != "v" {
		t.Fatalf("key = %q", p.Key)
	}
	if p.Label != "cmd+shift+v" {
		t.Fatalf("label = %q", p.Label)
	}
}

func TestParseHotkeyUnknownMode(t *testing.T) {
	if _, err := ParseHotkey(HotkeyConfig{Mode: "chord"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestParseComboRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"cmd+shift",   // no key
		"cmd+bogus+v", // unknown modifier before the key
		"ctrl+",       // trailing separator, no key
	}
	for _, combo := range tests {
		if _, _, err := parseCombo(combo); err == nil {
			t.Fatalf("combo %q: expected error", combo)
		}
	}
}

func TestParseComboBareKey(t *testing.T) {
	mods, key, err := parseCombo("f5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mods != 0 || key != "f5" {
		t.Fatalf("got mods=%v key=%q", mods, key)
	}
}
