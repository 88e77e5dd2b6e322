package recordstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

func appt(id, staff, date, slot string) model.Appointment {
	return model.Appointment{
		ID:          id,
		ClientName:  "Ana",
		ClientPhone: "09171234567",
		ServiceID:   "s1",
		StaffID:     staff,
		Date:        date,
		Time:        slot,
		Status:      model.StatusPending,
		TotalAmount: 850,
		CreatedAt:   time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestCreateAppointment_SlotExclusivity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.CreateAppointment(ctx, appt("GLAM-AAAAAA", "st1", "2025-03-10", "10:00 AM")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := m.CreateAppointment(ctx, appt("GLAM-BBBBBB", "st1", "2025-03-10", "10:00 AM"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if err := m.CreateAppointment(ctx, appt("GLAM-CCCCCC", "st2", "2025-03-10", "10:00 AM")); err != nil {
		t.Fatalf("other staff same time should succeed: %v", err)
	}
}

func TestCreateAppointment_ResubmissionIsNoop(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := appt("GLAM-AB12CD", "st1", "2025-03-10", "10:00 AM")

	if err := m.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	got, err := m.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.SameBooking(a) || got.Status != a.Status {
		t.Fatalf("stored record changed: %+v", got)
	}
	all, _ := m.FindAppointments(ctx, FieldClientPhone, a.ClientPhone)
	if len(all) != 1 {
		t.Fatalf("expected one stored record, got %d", len(all))
	}

	other := a
	other.CreatedAt = other.CreatedAt.Add(time.Minute)
	other.Time = "11:00 AM"
	if err := m.CreateAppointment(ctx, other); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestCreateAppointment_ConcurrentConflictSingleWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := appt("GLAM-"+string(rune('A'+i))+"00000", "st1", "2025-03-10", "10:00 AM")
			errs <- m.CreateAppointment(ctx, a)
		}(i)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestUpdateStatus_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := appt("GLAM-AB12CD", "st1", "2025-03-10", "10:00 AM")
	_ = m.CreateAppointment(ctx, a)

	got, err := m.UpdateStatus(ctx, a.ID, model.StatusPending, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != model.StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", got.Status)
	}
	if _, err := m.UpdateStatus(ctx, a.ID, model.StatusPending, model.StatusCancelled); !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}
	if _, err := m.UpdateStatus(ctx, "missing", model.StatusPending, model.StatusCancelled); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := appt("GLAM-AB12CD", "st1", "2025-03-10", "10:00 AM")
	_ = m.CreateAppointment(ctx, a)
	if _, err := m.UpdateStatus(ctx, a.ID, model.StatusPending, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := m.CreateAppointment(ctx, appt("GLAM-ZZZZZZ", "st1", "2025-03-10", "10:00 AM")); err != nil {
		t.Fatalf("slot should be free after cancel: %v", err)
	}
}

func TestWatch_SnapshotsAndClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemory()

	ch, err := m.Watch(ctx, ResourceAppointments)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	first := <-ch
	if first.Err != nil || len(first.Appointments) != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", first)
	}

	_ = m.CreateAppointment(context.Background(), appt("GLAM-AB12CD", "st1", "2025-03-10", "10:00 AM"))
	next := <-ch
	if len(next.Appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(next.Appointments))
	}

	m.Disconnect(ResourceAppointments, errors.New("permission denied"))
	if snap := <-ch; snap.Err == nil {
		t.Fatal("expected error snapshot")
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed after cancel")
		}
	}
}

func TestWatch_AbsentDocuments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMemory()

	ch, _ := m.Watch(ctx, ResourcePromo)
	if snap := <-ch; snap.Promo != nil {
		t.Fatalf("expected absent promo, got %+v", snap.Promo)
	}
	msg := "50% off"
	_ = m.PutPromo(context.Background(), model.Promo{Message: &msg})
	snap := <-ch
	if snap.Promo == nil || snap.Promo.Message == nil || *snap.Promo.Message != msg {
		t.Fatalf("unexpected promo snapshot: %+v", snap.Promo)
	}
}

func TestFailWritesAndQueries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.FailWrites(1, errors.New("timeout"))
	if err := m.CreateAppointment(ctx, appt("GLAM-AB12CD", "st1", "2025-03-10", "10:00 AM")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := m.CreateAppointment(ctx, appt("GLAM-AB12CD", "st1", "2025-03-10", "10:00 AM")); err != nil {
		t.Fatalf("second write should pass: %v", err)
	}

	m.FailQueries(errors.New("offline"))
	if _, err := m.FindAppointments(ctx, FieldID, "GLAM-AB12CD"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSeedCatalogOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.PutService(ctx, model.Service{ID: "custom", Name: "Custom"})

	if err := m.SeedCatalog(ctx, []model.Service{{ID: "s1", Name: "Cut"}}, []model.Staff{{ID: "st1", Name: "Maria"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ch, _ := m.Watch(context.Background(), ResourceServices)
	if snap := <-ch; len(snap.Services) != 1 || snap.Services[0].ID != "custom" {
		t.Fatalf("services should be untouched: %+v", snap.Services)
	}
	ch, _ = m.Watch(context.Background(), ResourceStaff)
	if snap := <-ch; len(snap.Staff) != 1 || snap.Staff[0].ID != "st1" {
		t.Fatalf("staff should be seeded: %+v", snap.Staff)
	}
}
