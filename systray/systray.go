package systray

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/getlantern/systray"
)

// ToggleFunc pauses or resumes capture and reports whether it is now active.
type ToggleFunc func() (bool, error)

// SystrayManager manages the system tray icon and menu
type SystrayManager struct {
	webPort  int
	iconData []byte
	toggle   ToggleFunc
	quit     chan struct{}
}

// NewSystrayManager creates a new systray manager
func NewSystrayManager(webPort int, iconData []byte, toggle ToggleFunc) *SystrayManager {
	return &SystrayManager{
		webPort:  webPort,
		iconData: iconData,
		toggle:   toggle,
		quit:     make(chan struct{}),
	}
}

// Run starts the system tray (blocking call)
func (m *SystrayManager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray
func (m *SystrayManager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel that will be closed when user clicks Quit
func (m *SystrayManager) WaitForQuit() <-chan struct{} {
	return m.quit
}

// onReady is called when the systray is ready
func (m *SystrayManager) onReady() {
	// Set icon
	if len(m.iconData) > 0 {
		systray.SetIcon(m.iconData)
	}

	// Set tooltip
	systray.SetTitle("Flow")
	systray.SetTooltip("Flow - Hotkey Capture")

	// Add menu items
	mOpenDashboard := systray.AddMenuItem("Open Dashboard", "Open the Flow diagnostics dashboard")
	mPause := systray.AddMenuItem("Pause Capture", "Temporarily stop listening for the hotkey")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit Flow")

	// Handle menu clicks
	go func() {
		for {
			select {
			case <-mOpenDashboard.ClickedCh:
				m.openDashboard()
			case <-mPause.ClickedCh:
				active, err := m.toggle()
				if err != nil {
					slog.Error("Failed to toggle capture", "error", err)
					continue
				}
				if active {
					mPause.SetTitle("Pause Capture")
				} else {
					mPause.SetTitle("Resume Capture")
				}
			case <-mQuit.ClickedCh:
				slog.Info("User requested quit from system tray")
				close(m.quit)
				systray.Quit()
				return
			}
		}
	}()
}

// onExit is called when the systray is exiting
func (m *SystrayManager) onExit() {
	slog.Info("System tray exited")
}

// openDashboard opens the web UI in the default browser
func (m *SystrayManager) openDashboard() {
	url := fmt.Sprintf("http://localhost:%d", m.webPort)
	slog.Info("Opening dashboard", "url", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open dashboard", "error", err)
	}
}
