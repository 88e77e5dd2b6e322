package insights

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

type fakeSource struct {
	appts []model.Appointment
}

func (f fakeSource) Appointments() []model.Appointment { return f.appts }

func (f fakeSource) ServiceName(id string) string {
	if id == "s1" {
		return "Signature Haircut"
	}
	return "Unknown"
}

func (f fakeSource) StaffName(id string) string {
	if id == "st1" {
		return "Maria Santos"
	}
	return "Unknown"
}

func TestComputeStats(t *testing.T) {
	today := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	appts := []model.Appointment{
		{ID: "a", Date: "2025-03-10", Status: model.StatusPending, TotalAmount: 850},
		{ID: "b", Date: "2025-03-10", Status: model.StatusConfirmed, TotalAmount: 1200},
		{ID: "c", Date: "2025-03-09", Status: model.StatusCancelled, TotalAmount: 5000},
		{ID: "d", Date: "2025-03-04", Status: model.StatusConfirmed, TotalAmount: 300},
		{ID: "e", Date: "2025-03-01", Status: model.StatusConfirmed, TotalAmount: 100},
	}
	st := ComputeStats(appts, today)

	if st.TotalRevenue != 2450 {
		t.Fatalf("expected revenue 2450, got %d", st.TotalRevenue)
	}
	if st.PendingCount != 1 || st.ConfirmedCount != 3 {
		t.Fatalf("unexpected counts %+v", st)
	}
	if len(st.Week) != 7 || st.Week[0].Date != "2025-03-04" || st.Week[6].Date != "2025-03-10" {
		t.Fatalf("unexpected week %+v", st.Week)
	}
	if st.Week[6].Revenue != 2050 || st.Week[6].Bookings != 2 || st.Week[6].Weekday != "Mon" {
		t.Fatalf("unexpected today %+v", st.Week[6])
	}
	if st.Week[5].Bookings != 0 {
		t.Fatalf("cancelled booking counted: %+v", st.Week[5])
	}
	if st.Week[0].Revenue != 300 {
		t.Fatalf("unexpected first day %+v", st.Week[0])
	}
}

func TestSchedule(t *testing.T) {
	src := fakeSource{appts: []model.Appointment{
		{ID: "a", Date: "2025-03-10", Time: "01:00 PM", ServiceID: "s1", StaffID: "st1"},
		{ID: "b", Date: "2025-03-10", Time: "09:00 AM", ServiceID: "gone", StaffID: "st1"},
		{ID: "c", Date: "2025-03-11", Time: "09:00 AM", ServiceID: "s1", StaffID: "st1"},
		{ID: "d", Date: "2025-03-10", Time: "11:00 AM", ServiceID: "s1", StaffID: "gone", Status: model.StatusCancelled},
	}}
	got := Schedule(src, "2025-03-10")
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "d" || got[2].ID != "a" {
		t.Fatalf("unexpected order %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].ServiceName != "Unknown" || got[1].StaffName != "Unknown" || got[2].ServiceName != "Signature Haircut" {
		t.Fatalf("unexpected names %+v", got)
	}
}
