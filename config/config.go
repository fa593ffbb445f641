package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/JasonLovesDoggo/Flow/hotkey"
)

type Config struct {
	Hotkey  HotkeyConfig  `toml:"hotkey"`
	Capture CaptureConfig `toml:"capture"`
	Web     WebConfig     `toml:"web"`
	Log     LogConfig     `toml:"log"`
}

type HotkeyConfig struct {
	// Mode selects the activation style: "fn", "modifier" or "custom".
	Mode string `toml:"mode"`
	// Modifier names the lone modifier for mode = "modifier".
	Modifier string `toml:"modifier"`
	// Combo is the chord for mode = "custom", e.g. "cmd+shift+2".
	Combo string `toml:"combo"`
}

type CaptureConfig struct {
	// Prompt controls whether startup may show the OS permission dialog.
	Prompt bool `toml:"prompt"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Mode: "fn",
		},
		Capture: CaptureConfig{
			Prompt: true,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8099,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}

	configDir := filepath.Join(base, "flow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// DataDir returns the directory holding the activation database.
func DataDir() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// Load loads the configuration from the TOML file
// If the file doesn't exist, it creates it with default values
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := save(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Load existing config
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back to its TOML file.
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return save(configPath, c)
}

// save writes the configuration to the TOML file
func save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// ParsedHotkey is the platform-neutral part of a hotkey definition; the
// caller resolves the key name to a platform key code.
type ParsedHotkey struct {
	Mode     string
	Modifier hotkey.Modifiers // mode = "modifier"
	Mods     hotkey.Modifiers // mode = "custom"
	Key      string           // mode = "custom"
	Label    string
}

// ParseHotkey validates the [hotkey] section.
func ParseHotkey(hc HotkeyConfig) (ParsedHotkey, error) {
	switch strings.ToLower(strings.TrimSpace(hc.Mode)) {
	case "", "fn":
		return ParsedHotkey{Mode: "fn", Label: "fn"}, nil

	case "modifier":
		mod, ok := modifierNamed(hc.Modifier)
		if !ok {
			return ParsedHotkey{}, fmt.Errorf("unknown modifier: %q", hc.Modifier)
		}
		return ParsedHotkey{Mode: "modifier", Modifier: mod, Label: mod.String()}, nil

	case "custom":
		mods, key, err := parseCombo(hc.Combo)
		if err != nil {
			return ParsedHotkey{}, err
		}
		return ParsedHotkey{Mode: "custom", Mods: mods, Key: key, Label: strings.ToLower(hc.Combo)}, nil

	default:
		return ParsedHotkey{}, fmt.Errorf("unknown hotkey mode: %q", hc.Mode)
	}
}

// parseCombo parses a combo string like "ctrl+shift+v". The last part must
// be a key; everything before it must be a modifier.
func parseCombo(combo string) (hotkey.Modifiers, string, error) {
	if strings.TrimSpace(combo) == "" {
		return 0, "", fmt.Errorf("empty hotkey combo")
	}

	parts := strings.Split(strings.ToLower(combo), "+")
	var mods hotkey.Modifiers
	var key string
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if mod, ok := modifierNamed(part); ok {
			mods |= mod
			continue
		}
		if i != len(parts)-1 {
			return 0, "", fmt.Errorf("unknown modifier: %s", part)
		}
		key = part
	}

	if key == "" {
		return 0, "", fmt.Errorf("combo %q has no key; use mode = \"modifier\" for modifier-only hotkeys", combo)
	}
	return mods, key, nil
}

func modifierNamed(name string) (hotkey.Modifiers, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ctrl", "control":
		return hotkey.ModControl, true
	case "shift":
		return hotkey.ModShift, true
	case "alt", "option", "opt":
		return hotkey.ModOption, true
	case "cmd", "command", "win", "super":
		return hotkey.ModCommand, true
	}
	return 0, false
}
