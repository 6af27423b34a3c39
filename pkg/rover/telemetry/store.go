package telemetry

import (
	"sync"
	"time"
)

// Store is the cache of last received telemetry.
// Values are 0 until the first valid report arrives and are only
// replaced by later valid reports.
type Store struct {
	// Now is used to stamp updates, time.Now if nil.
	Now func() time.Time

	values      [NumSlots]int
	updated     [NumSlots]time.Time
	batteryText string
	lock        sync.RWMutex
}

// Snapshot is a consistent copy of all slots.
type Snapshot struct {
	Values      [NumSlots]int
	Updated     [NumSlots]time.Time
	BatteryText string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the cached value of a slot.
func (s *Store) Get(slot Slot) int {
	if !slot.IsValid() {
		return 0
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values[slot]
}

// UpdatedAt returns when the slot was last updated, zero if never.
func (s *Store) UpdatedAt(slot Slot) time.Time {
	if !slot.IsValid() {
		return time.Time{}
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.updated[slot]
}

// BatteryText returns the raw payload of the last battery report.
func (s *Store) BatteryText() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.batteryText
}

// Snapshot copies all slots.
func (s *Store) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return Snapshot{
		Values:      s.values,
		Updated:     s.updated,
		BatteryText: s.batteryText,
	}
}

// Set overwrites a single slot.
func (s *Store) Set(slot Slot, val int) {
	s.apply([]Update{{Slot: slot, Value: val}}, "")
}

// apply writes all updates of one report under a single lock, so a
// Snapshot never observes part of a report. Empty text keeps the
// battery text.
func (s *Store) apply(updates []Update, text string) {
	now := s.now()
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, u := range updates {
		if u.Slot.IsValid() {
			s.values[u.Slot], s.updated[u.Slot] = u.Value, now
		}
	}
	if text != "" {
		s.batteryText = text
	}
}

func (s *Store) now() time.Time {
	if fn := s.Now; fn != nil {
		return fn()
	}
	return time.Now()
}

// Value returns the value of a slot in the snapshot.
func (s Snapshot) Value(slot Slot) int {
	if !slot.IsValid() {
		return 0
	}
	return s.Values[slot]
}

// Received indicates the slot has been reported at least once.
func (s Snapshot) Received(slot Slot) bool {
	return slot.IsValid() && !s.Updated[slot].IsZero()
}
