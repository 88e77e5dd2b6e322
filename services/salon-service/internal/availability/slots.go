package availability

import "github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"

type State string

const (
	Available State = "AVAILABLE"
	Booked    State = "BOOKED"
	Blocked   State = "BLOCKED"
)

// LunchSlot is never bookable.
const LunchSlot = "12:00 PM"

// Slots is the fixed daily grid, in order.
var Slots = []string{
	"09:00 AM",
	"10:00 AM",
	"11:00 AM",
	LunchSlot,
	"01:00 PM",
	"02:00 PM",
	"03:00 PM",
	"04:00 PM",
	"05:00 PM",
}

type Slot struct {
	Time  string `json:"time"`
	State State  `json:"state"`
}

func IsValidSlot(label string) bool {
	return Index(label) < len(Slots)
}

// Index is the position of label in the daily grid, or len(Slots) when the
// label is not on the grid.
func Index(label string) int {
	for i, s := range Slots {
		if s == label {
			return i
		}
	}
	return len(Slots)
}

// BookedTimes returns the slot labels held by non-cancelled appointments of
// staffID on date. Every appointment holds exactly one slot regardless of the
// service duration.
func BookedTimes(appointments []model.Appointment, staffID, date string) map[string]struct{} {
	booked := map[string]struct{}{}
	for _, a := range appointments {
		if a.StaffID == staffID && a.Date == date && a.Holds() {
			booked[a.Time] = struct{}{}
		}
	}
	return booked
}

// Grid computes the state of every slot for one staff member on one date.
func Grid(appointments []model.Appointment, staffID, date string) []Slot {
	booked := BookedTimes(appointments, staffID, date)
	grid := make([]Slot, 0, len(Slots))
	for _, label := range Slots {
		state := Available
		switch {
		case label == LunchSlot:
			state = Blocked
		case hasTime(booked, label):
			state = Booked
		}
		grid = append(grid, Slot{Time: label, State: state})
	}
	return grid
}

func Bookable(appointments []model.Appointment, staffID, date, label string) bool {
	if !IsValidSlot(label) || label == LunchSlot {
		return false
	}
	return !hasTime(BookedTimes(appointments, staffID, date), label)
}

func hasTime(set map[string]struct{}, label string) bool {
	_, ok := set[label]
	return ok
}
