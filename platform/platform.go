// Package platform provides the OS-specific capture backends and
// suspension guards consumed by the capture manager. Each platform file
// supplies NewBackend, NewSuspensionGuard and a key-code table.
package platform

import "fmt"

// KeyCode returns the platform key code for a key name like "v" or "f5".
// An empty name means a modifier-only hotkey and maps to no code.
func KeyCode(key string) (uint16, error) {
	if key == "" {
		return 0, nil
	}
	if code, ok := keyCodes[key]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("unknown key: %s", key)
}
