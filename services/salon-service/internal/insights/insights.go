// Package insights derives the admin dashboard views from the mirrored
// appointments.
package insights

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/availability"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

// Source is the read side of the mirror.
type Source interface {
	Appointments() []model.Appointment
	ServiceName(id string) string
	StaffName(id string) string
}

type Day struct {
	Date     string `json:"date"`
	Weekday  string `json:"weekday"`
	Revenue  int64  `json:"revenue"`
	Bookings int    `json:"bookings"`
}

type Stats struct {
	TotalRevenue   int64 `json:"totalRevenue"`
	PendingCount   int   `json:"pendingCount"`
	ConfirmedCount int   `json:"confirmedCount"`
	Week           []Day `json:"week"`
}

// ComputeStats sums revenue over non-cancelled appointments and builds the
// seven-day series ending on today.
func ComputeStats(appts []model.Appointment, today time.Time) Stats {
	var st Stats
	byDate := map[string]*Day{}
	for i := 6; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		st.Week = append(st.Week, Day{Date: d.Format(model.DateLayout), Weekday: d.Format("Mon")})
	}
	for i := range st.Week {
		byDate[st.Week[i].Date] = &st.Week[i]
	}

	for _, a := range appts {
		switch a.Status {
		case model.StatusPending:
			st.PendingCount++
		case model.StatusConfirmed:
			st.ConfirmedCount++
		}
		if !a.Holds() {
			continue
		}
		st.TotalRevenue += a.TotalAmount
		if d, ok := byDate[a.Date]; ok {
			d.Revenue += a.TotalAmount
			d.Bookings++
		}
	}
	return st
}

type ScheduleEntry struct {
	model.Appointment
	ServiceName string `json:"serviceName"`
	StaffName   string `json:"staffName"`
}

// Schedule lists the appointments on date in grid order, cancelled ones
// included, with catalogue names resolved.
func Schedule(src Source, date string) []ScheduleEntry {
	out := make([]ScheduleEntry, 0)
	for _, a := range src.Appointments() {
		if a.Date != date {
			continue
		}
		out = append(out, ScheduleEntry{
			Appointment: a,
			ServiceName: src.ServiceName(a.ServiceID),
			StaffName:   src.StaffName(a.StaffID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := availability.Index(out[i].Time), availability.Index(out[j].Time)
		if ai != aj {
			return ai < aj
		}
		return out[i].Time < out[j].Time
	})
	return out
}
