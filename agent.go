package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JasonLovesDoggo/Flow/capture"
	"github.com/JasonLovesDoggo/Flow/config"
	"github.com/JasonLovesDoggo/Flow/hotkey"
	"github.com/JasonLovesDoggo/Flow/platform"
	"github.com/JasonLovesDoggo/Flow/storage"
	"github.com/JasonLovesDoggo/Flow/web"
)

// Agent wires the capture manager to the activation log, the dashboard and
// the tray.
type Agent struct {
	cfg     *config.Config
	manager *capture.Manager
	db      *storage.DB
	web     *web.Server
}

// NewAgent creates a new agent instance
func NewAgent(cfg *config.Config) (*Agent, error) {
	parsed, err := config.ParseHotkey(cfg.Hotkey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hotkey: %w", err)
	}

	def, err := buildDefinition(parsed)
	if err != nil {
		return nil, err
	}

	manager := capture.NewManager(def, platform.NewBackend(), platform.NewSuspensionGuard())

	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	agent := &Agent{
		cfg:     cfg,
		manager: manager,
		db:      db,
	}
	if cfg.Web.Enabled {
		agent.web = web.NewServer(db, manager.Status, cfg.Web.Port)
	}
	return agent, nil
}

// buildDefinition resolves the parsed hotkey into a platform definition.
func buildDefinition(p config.ParsedHotkey) (hotkey.Definition, error) {
	switch p.Mode {
	case "fn":
		code := platform.SpecialKeyCode()
		if code == 0 {
			return hotkey.Definition{}, fmt.Errorf("no dedicated fn key on this platform; use mode = \"modifier\" or \"custom\"")
		}
		return hotkey.SpecialKey(code), nil

	case "modifier":
		return hotkey.ModifierOnly(p.Modifier), nil

	case "custom":
		code, err := platform.KeyCode(p.Key)
		if err != nil {
			return hotkey.Definition{}, fmt.Errorf("failed to resolve key code: %w", err)
		}
		return hotkey.Custom(code, p.Mods, p.Label), nil
	}
	return hotkey.Definition{}, fmt.Errorf("unknown hotkey mode: %s", p.Mode)
}

// Run starts capture and consumes triggers and diagnostics until ctx ends.
func (a *Agent) Run(ctx context.Context) error {
	active, err := a.manager.Start(a.cfg.Capture.Prompt)
	if err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	if !active {
		return fmt.Errorf("input capture permission denied; grant access in system settings and restart")
	}
	defer a.manager.Stop()

	if a.web != nil {
		go func() {
			if err := a.web.Start(); err != nil {
				slog.Error("Web server stopped", "error", err)
			}
		}()
	}

	slog.Info("Flow started", "hotkey", a.manager.Status().Hotkey)

	// Trigger consumption happens here, on the agent's context, never on
	// the capture worker.
	for {
		select {
		case <-ctx.Done():
			return nil

		case t := <-a.manager.Triggers():
			label := a.manager.Status().Hotkey
			slog.Info("Hotkey activated", "trigger", t.String(), "hotkey", label)
			if err := a.db.SaveActivation(t.String(), label); err != nil {
				slog.Error("Failed to save activation", "error", err)
			}
			if a.web != nil {
				a.web.BroadcastTrigger(t, label)
			}

		case d := <-a.manager.Diagnostics():
			if err := a.db.SaveDiagnostic(string(d.Kind), d.Outcome, d.Detail); err != nil {
				slog.Error("Failed to save diagnostic", "error", err)
			}
			if a.web != nil {
				a.web.BroadcastDiagnostic(d)
			}
		}
	}
}

// ToggleCapture pauses or resumes capture; used by the tray menu.
func (a *Agent) ToggleCapture() (bool, error) {
	if a.manager.Status().Active {
		a.manager.Stop()
		return false, nil
	}
	return a.manager.Start(false)
}

// UpdateHotkey swaps the active definition from a new config section.
func (a *Agent) UpdateHotkey(hc config.HotkeyConfig) error {
	parsed, err := config.ParseHotkey(hc)
	if err != nil {
		return err
	}
	def, err := buildDefinition(parsed)
	if err != nil {
		return err
	}
	a.manager.UpdateDefinition(def)
	return nil
}

// Close releases the agent's resources.
func (a *Agent) Close() {
	a.manager.Stop()
	a.db.Close()
}
