package scene

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// BatchOwner is anything holding GPU batches that reference scene assets.
type BatchOwner interface {
	FreeBatches() error
}

// Manager owns the current scene and the one queued to replace it. The
// switch happens in Advance, at the start of a frame, after the device has
// drained every frame that might still read the old scene's resources.
type Manager struct {
	svc      Services
	log      *zap.Logger
	current  *Scene
	next     *Scene
	renders  []BatchOwner
	switches int
}

func NewManager(svc Services, renderers ...BatchOwner) *Manager {
	return &Manager{svc: svc, log: svc.Log, renders: renderers}
}

// Current returns the current scene, or nil before the first switch.
func (m *Manager) Current() *Scene { return m.current }

// Pending reports whether a switch is queued.
func (m *Manager) Pending() bool { return m.next != nil }

// Switches returns how many scene switches have completed.
func (m *Manager) Switches() int { return m.switches }

// AssignNextScene queues s to become current at the next Advance. A later
// call before that replaces the queued scene.
func (m *Manager) AssignNextScene(s *Scene) {
	if m.next != nil {
		m.log.Debug("replacing queued scene", zap.String("dropped", m.next.Name()), zap.String("scene", s.Name()))
	}
	m.next = s
}

// Advance performs a queued switch: wait for the device to go idle, free
// every batch, destroy the current scene and its assets, then populate the
// next scene. It reports whether a switch happened.
func (m *Manager) Advance(ctx context.Context) (bool, error) {
	if m.next == nil {
		return false, nil
	}
	if err := m.teardown(ctx); err != nil {
		return false, fmt.Errorf("switch scene: %w", err)
	}
	m.current, m.next = m.next, nil
	m.switches++
	m.log.Info("scene switched", zap.String("scene", m.current.Name()))
	if err := m.current.Populate(); err != nil {
		return true, err
	}
	return true, nil
}

// Update advances the current scene by dt.
func (m *Manager) Update(dt float32) error {
	if m.current == nil {
		return nil
	}
	return m.current.Update(dt)
}

// Shutdown tears down the current scene.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.next = nil
	return m.teardown(ctx)
}

func (m *Manager) teardown(ctx context.Context) error {
	if m.svc.Device != nil {
		if err := m.svc.Device.WaitIdle(ctx); err != nil {
			return err
		}
	}
	if m.current == nil {
		return nil
	}
	var errs []error
	for _, r := range m.renders {
		if err := r.FreeBatches(); err != nil {
			errs = append(errs, err)
		}
	}
	m.current.Destroy()
	if m.svc.Assets != nil {
		if err := m.svc.Assets.DestroyAssets(); err != nil {
			errs = append(errs, err)
		}
	}
	m.current = nil
	return errors.Join(errs...)
}
