package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoSlots         = errors.New("no slots configured")
	ErrSlotsOutOfOrder = errors.New("slot times must be strictly increasing")
)

// Slot is one configured question time, stored as minutes since midnight.
type Slot int

// ParseSlot parses "HH:MM" into a Slot.
func ParseSlot(s string) (Slot, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return Slot(h*60 + m), nil
}

// ParseSlotList parses a comma-separated list of "HH:MM" times.
func ParseSlotList(s string) ([]Slot, error) {
	var slots []Slot
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		slot, err := ParseSlot(part)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// String formats the slot as HH:MM.
func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", int(s)/60, int(s)%60)
}

// MinuteOfDay returns minutes since midnight for t, in t's location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SlotCalendar is the fixed, ordered set of question times within the working
// window. It is configured once at startup and never mutated.
type SlotCalendar struct {
	slots []Slot
}

// NewSlotCalendar validates and freezes the slot set. The set must be
// non-empty and strictly increasing, so no two slots share a time-of-day.
func NewSlotCalendar(slots []Slot) (*SlotCalendar, error) {
	if len(slots) == 0 {
		return nil, ErrNoSlots
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			return nil, fmt.Errorf("%w: %s before %s", ErrSlotsOutOfOrder, slots[i], slots[i-1])
		}
	}
	frozen := make([]Slot, len(slots))
	copy(frozen, slots)
	return &SlotCalendar{slots: frozen}, nil
}

// Slots returns the configured slots in ascending order.
func (c *SlotCalendar) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Resolve returns the latest slot at or before now's time-of-day, or false
// if now precedes the first slot of the day. Exact equality counts as that slot.
func (c *SlotCalendar) Resolve(now time.Time) (Slot, bool) {
	m := MinuteOfDay(now)
	for i := len(c.slots) - 1; i >= 0; i-- {
		if int(c.slots[i]) <= m {
			return c.slots[i], true
		}
	}
	return 0, false
}

// IsDispatchTick reports whether now's time-of-day exactly matches a slot at
// minute granularity. Ticks that fire off-grid must be ignored, not rounded
// to the nearest slot, so a skewed scheduler cannot double-fire a question.
func (c *SlotCalendar) IsDispatchTick(now time.Time) bool {
	m := MinuteOfDay(now)
	for _, s := range c.slots {
		if int(s) == m {
			return true
		}
	}
	return false
}
