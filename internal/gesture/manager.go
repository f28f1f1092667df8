package gesture

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultCooldown is how long a reset record waits before it may start again.
	DefaultCooldown = 500 * time.Millisecond
	// DefaultMinTimeBetweenGestures pauses evaluation after any completion.
	DefaultMinTimeBetweenGestures = 700 * time.Millisecond
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Cooldown               time.Duration
	MinTimeBetweenGestures time.Duration
	// Now supplies the time used by Reset. Defaults to time.Now.
	Now func() time.Time
}

// Manager owns the gesture records and runs them every tick.
// It is not safe for concurrent use; the host serializes ticks.
type Manager struct {
	cfg       ManagerConfig
	records   []Record
	gateUntil time.Time
}

// NewManager creates a Manager. Zero durations select the defaults.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.MinTimeBetweenGestures == 0 {
		cfg.MinTimeBetweenGestures = DefaultMinTimeBetweenGestures
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg}
}

// SetClock replaces the time source used by Reset.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.cfg.Now = now
	}
}

// SetMinTimeBetweenGestures changes the pause applied after a completion.
func (m *Manager) SetMinTimeBetweenGestures(d time.Duration) {
	if d >= 0 {
		m.cfg.MinTimeBetweenGestures = d
	}
}

func (m *Manager) index(userID uint32, kind Kind) int {
	for i := range m.records {
		if m.records[i].UserID == userID && m.records[i].Kind == kind {
			return i
		}
	}
	return -1
}

// StartTracking begins tracking kind for the user, replacing any existing
// record. It returns false for kinds without a definition.
func (m *Manager) StartTracking(userID uint32, kind Kind) bool {
	if !kind.Valid() || userID == 0 {
		return false
	}
	m.Delete(userID, kind)
	m.records = append(m.records, NewRecord(userID, kind))
	return true
}

// SetConflicts replaces the conflict set of a tracked gesture.
func (m *Manager) SetConflicts(userID uint32, kind Kind, conflicts ...Kind) bool {
	i := m.index(userID, kind)
	if i < 0 {
		return false
	}
	m.records[i].Conflicts = append([]Kind(nil), conflicts...)
	return true
}

// Reset rearms a record at phase 0. It may not start again before the cooldown.
func (m *Manager) Reset(userID uint32, kind Kind) bool {
	i := m.index(userID, kind)
	if i < 0 {
		return false
	}
	m.records[i] = m.records[i].reset(m.cfg.Now().Add(m.cfg.Cooldown))
	return true
}

// ResetAll resets every record of the user.
func (m *Manager) ResetAll(userID uint32) {
	retryAt := m.cfg.Now().Add(m.cfg.Cooldown)
	for i := range m.records {
		if m.records[i].UserID == userID {
			m.records[i] = m.records[i].reset(retryAt)
		}
	}
}

// Delete stops tracking kind for the user.
func (m *Manager) Delete(userID uint32, kind Kind) bool {
	i := m.index(userID, kind)
	if i < 0 {
		return false
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	return true
}

// ClearAll removes every record of the user.
func (m *Manager) ClearAll(userID uint32) {
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.UserID != userID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
}

// Count returns the number of gestures tracked for the user.
func (m *Manager) Count(userID uint32) int {
	n := 0
	for _, rec := range m.records {
		if rec.UserID == userID {
			n++
		}
	}
	return n
}

// Kinds lists the gestures tracked for the user in tracking order.
func (m *Manager) Kinds(userID uint32) []Kind {
	var kinds []Kind
	for _, rec := range m.records {
		if rec.UserID == userID {
			kinds = append(kinds, rec.Kind)
		}
	}
	return kinds
}

// IsTracked reports whether kind is tracked for the user.
func (m *Manager) IsTracked(userID uint32, kind Kind) bool {
	return m.index(userID, kind) >= 0
}

// IsComplete reports whether kind has completed. With resetOnComplete a
// positive answer also resets all the user's gestures.
func (m *Manager) IsComplete(userID uint32, kind Kind, resetOnComplete bool) bool {
	i := m.index(userID, kind)
	if i < 0 || !m.records[i].Complete {
		return false
	}
	if resetOnComplete {
		m.ResetAll(userID)
	}
	return true
}

// IsCancelled reports whether kind has been cancelled.
func (m *Manager) IsCancelled(userID uint32, kind Kind) bool {
	i := m.index(userID, kind)
	return i >= 0 && m.records[i].Cancelled
}

// Progress returns the progress of kind in [0,1].
func (m *Manager) Progress(userID uint32, kind Kind) float64 {
	if i := m.index(userID, kind); i >= 0 {
		return m.records[i].Progress
	}
	return 0
}

// Output returns the gesture specific output vector of kind.
func (m *Manager) Output(userID uint32, kind Kind) r3.Vec {
	if i := m.index(userID, kind); i >= 0 {
		return m.records[i].Output
	}
	return r3.Vec{}
}

// Record returns a copy of the record for kind.
func (m *Manager) Record(userID uint32, kind Kind) (Record, bool) {
	if i := m.index(userID, kind); i >= 0 {
		return m.records[i], true
	}
	return Record{}, false
}

// Records returns a snapshot of the user's records in tracking order.
func (m *Manager) Records(userID uint32) []Record {
	var out []Record
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

// conflictInProgress reports whether any conflicting gesture of the same
// user currently shows progress.
func (m *Manager) conflictInProgress(rec *Record) bool {
	for _, kind := range rec.Conflicts {
		if i := m.index(rec.UserID, kind); i >= 0 && m.records[i].Progress > 0 {
			return true
		}
	}
	return false
}

// Evaluate advances the user's records for one tick, in tracking order.
// Records still cooling down or suppressed by a conflict are skipped, and
// nothing is evaluated for a while after any gesture completes.
func (m *Manager) Evaluate(userID uint32, in Input) {
	if in.Now.Before(m.gateUntil) {
		return
	}

	for i := range m.records {
		rec := m.records[i]
		if rec.UserID != userID || in.Now.Before(rec.RetryAt) || m.conflictInProgress(&rec) {
			continue
		}

		next := Advance(rec, in)
		m.records[i] = next

		if next.Complete && !rec.Complete {
			m.gateUntil = in.Now.Add(m.cfg.MinTimeBetweenGestures)
		}
	}
}
