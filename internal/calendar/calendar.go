package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kirinyoku/frontdesk/internal/clock"
	"github.com/kirinyoku/frontdesk/internal/domain"
)

// DefaultSlots are the hourly slots offered each service day.
var DefaultSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM",
	"12:00 PM", "01:00 PM", "02:00 PM",
	"03:00 PM", "04:00 PM",
}

const (
	DefaultOpenHour  = 8
	DefaultCloseHour = 16
)

var ErrInvalidSlotLabel = errors.New("invalid slot label")

type Config struct {
	OpenHour    int
	CloseHour   int
	Slots       []string
	Departments []domain.Department
	Location    *time.Location
}

type slot struct {
	label string
	hour  int
}

// Calendar answers booking questions against the server-local wall clock.
// It holds no mutable state; every answer is a function of the clock.
type Calendar struct {
	clock       clock.Clock
	loc         *time.Location
	openHour    int
	closeHour   int
	slots       []slot
	departments []domain.Department
}

func New(cfg Config, clk clock.Clock) (*Calendar, error) {
	const op = "calendar.New"

	if len(cfg.Slots) == 0 {
		cfg.Slots = DefaultSlots
	}

	if len(cfg.Departments) == 0 {
		cfg.Departments = domain.DefaultDepartments
	}

	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	if cfg.OpenHour < 0 || cfg.CloseHour > 24 || cfg.OpenHour >= cfg.CloseHour {
		return nil, fmt.Errorf("%s: invalid booking window [%d, %d)", op, cfg.OpenHour, cfg.CloseHour)
	}

	c := &Calendar{
		clock:     clk,
		loc:       cfg.Location,
		openHour:  cfg.OpenHour,
		closeHour: cfg.CloseHour,
	}

	seen := make(map[string]bool, len(cfg.Slots))
	for _, label := range cfg.Slots {
		h, err := ParseSlotHour(label)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if seen[label] {
			return nil, fmt.Errorf("%s: duplicate slot %q", op, label)
		}
		seen[label] = true
		c.slots = append(c.slots, slot{label: label, hour: h})
	}

	for _, d := range cfg.Departments {
		if d == "" || d == domain.DepartmentUnknown {
			return nil, fmt.Errorf("%s: invalid department %q", op, d)
		}
		c.departments = append(c.departments, d)
	}

	return c, nil
}

// ParseSlotHour converts a 12-hour label such as "01:00 PM" into its 24-hour start hour.
// 12 AM is hour 0 and 12 PM is hour 12.
func ParseSlotHour(label string) (int, error) {
	parts := strings.Fields(label)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlotLabel, label)
	}

	hm := strings.Split(parts[0], ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlotLabel, label)
	}

	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlotLabel, label)
	}

	minute, err := strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlotLabel, label)
	}

	switch strings.ToUpper(parts[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlotLabel, label)
	}

	return hour, nil
}

// Now is the current server-local time.
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// Today is the current service day formatted with domain.DateLayout.
func (c *Calendar) Today() string {
	return c.Now().Format(domain.DateLayout)
}

// DateOf returns the service day t falls on.
func (c *Calendar) DateOf(t time.Time) string {
	return t.In(c.loc).Format(domain.DateLayout)
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsBookingWindowOpen is true iff the local hour is within [open, close).
func (c *Calendar) IsBookingWindowOpen() bool {
	return c.windowOpenAt(c.Now())
}

// IsSlotAvailable is false when the window is closed, the label is unknown,
// or the slot's start hour is already in the past.
func (c *Calendar) IsSlotAvailable(label string) bool {
	now := c.Now()
	s, ok := c.lookup(label)
	if !ok {
		return false
	}
	return c.slotAvailableAt(now, s)
}

// KnownSlot reports whether label is one of the configured slots.
func (c *Calendar) KnownSlot(label string) bool {
	_, ok := c.lookup(label)
	return ok
}

// Slots lists every slot in order with its availability right now.
func (c *Calendar) Slots() []domain.Slot {
	now := c.Now()
	out := make([]domain.Slot, 0, len(c.slots))
	for _, s := range c.slots {
		out = append(out, domain.Slot{
			Label:     s.label,
			Hour:      s.hour,
			Available: c.slotAvailableAt(now, s),
		})
	}
	return out
}

// Department resolves a requested department against the configured set.
func (c *Calendar) Department(name string) (domain.Department, bool) {
	for _, d := range c.departments {
		if string(d) == name {
			return d, true
		}
	}
	return "", false
}

func (c *Calendar) Departments() []domain.Department {
	out := make([]domain.Department, len(c.departments))
	copy(out, c.departments)
	return out
}

func (c *Calendar) lookup(label string) (slot, bool) {
	for _, s := range c.slots {
		if s.label == label {
			return s, true
		}
	}
	return slot{}, false
}

func (c *Calendar) windowOpenAt(now time.Time) bool {
	h := now.Hour()
	return h >= c.openHour && h < c.closeHour
}

func (c *Calendar) slotAvailableAt(now time.Time, s slot) bool {
	if !c.windowOpenAt(now) {
		return false
	}
	return now.Hour() <= s.hour
}
