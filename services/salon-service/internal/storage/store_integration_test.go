package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/glamflow/libs/db"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/outbox"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

// These tests run against a scratch database named by DATABASE_URL.
func openTestStore(t *testing.T) (*Store, *db.Pool) {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, url, db.DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := model.SiteSettings{SiteName: "GlamFlow", BookingOpen: true}
	return New(pool, outbox.NewRepository(), logger, base), pool
}

// testAppointment uses a fresh staff id so runs never share slots.
func testAppointment(t *testing.T, pool *db.Pool) model.Appointment {
	t.Helper()
	staffID := "it-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM appointments WHERE staff_id = $1`, staffID)
	})
	return model.Appointment{
		ID:            "GLAM-" + uuid.NewString()[:6],
		ClientName:    "Ana Reyes",
		ClientPhone:   "09171234567",
		ServiceID:     "s1",
		StaffID:       staffID,
		Date:          "2025-03-10",
		Time:          "10:00 AM",
		Status:        model.StatusPending,
		PaymentMethod: model.PaymentGCash,
		TotalAmount:   850,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestPostgresCreateAppointment(t *testing.T) {
	store, pool := openTestStore(t)
	ctx := context.Background()
	a := testAppointment(t, pool)

	if err := store.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("identical resubmission: %v", err)
	}

	collision := a
	collision.CreatedAt = a.CreatedAt.Add(time.Second)
	collision.Time = "11:00 AM"
	if err := store.CreateAppointment(ctx, collision); !errors.Is(err, recordstore.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	rival := a
	rival.ID = "GLAM-" + uuid.NewString()[:6]
	if err := store.CreateAppointment(ctx, rival); !errors.Is(err, recordstore.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	var events int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM outbox_events WHERE aggregate_id = $1`, a.ID).Scan(&events); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one booked event, got %d", events)
	}
}

func TestPostgresUpdateStatusCompareAndSwap(t *testing.T) {
	store, pool := openTestStore(t)
	ctx := context.Background()
	a := testAppointment(t, pool)
	if err := store.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.UpdateStatus(ctx, a.ID, model.StatusPending, model.StatusConfirmed)
	if err != nil || updated.Status != model.StatusConfirmed {
		t.Fatalf("confirm: %+v %v", updated, err)
	}
	if _, err := store.UpdateStatus(ctx, a.ID, model.StatusPending, model.StatusCancelled); !errors.Is(err, recordstore.ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "GLAM-NOPE00", model.StatusPending, model.StatusCancelled); !errors.Is(err, recordstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := store.UpdateStatus(ctx, a.ID, model.StatusConfirmed, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	next := a
	next.ID = "GLAM-" + uuid.NewString()[:6]
	if err := store.CreateAppointment(ctx, next); err != nil {
		t.Fatalf("cancelled slot should be free: %v", err)
	}
}

func TestPostgresSettingsKeepDefaults(t *testing.T) {
	store, pool := openTestStore(t)
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM site_documents WHERE name = $1`, docSiteSettings)
	})

	if _, err := pool.Exec(ctx, `
		INSERT INTO site_documents (name, body) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body
	`, docSiteSettings, []byte(`{"siteName":"Glam Studio","contactPhone":"0917"}`)); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	settings, err := store.loadSettings(ctx)
	if err != nil || settings == nil {
		t.Fatalf("load: %v %v", settings, err)
	}
	if settings.SiteName != "Glam Studio" || !settings.AcceptsBookings() {
		t.Fatalf("expected stored copy over open defaults, got %+v", settings)
	}
}

func TestPostgresListenerReconnects(t *testing.T) {
	store, pool := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Watch(ctx, recordstore.ResourceAppointments)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	go func() { _ = store.Listen(ctx) }()

	a := testAppointment(t, pool)
	waitSnapshot(t, ch, func(s recordstore.Snapshot) bool { return s.Err == nil && holds(s, a.ID) }, func() {
		_ = store.CreateAppointment(ctx, a)
	})

	waitSnapshot(t, ch, func(s recordstore.Snapshot) bool { return s.Err != nil }, func() {
		_, _ = pool.Exec(ctx, `
			SELECT pg_terminate_backend(pid) FROM pg_stat_activity
			WHERE query ILIKE 'LISTEN%' AND pid <> pg_backend_pid()
		`)
	})

	b := testAppointment(t, pool)
	waitSnapshot(t, ch, func(s recordstore.Snapshot) bool { return s.Err == nil && holds(s, b.ID) }, func() {
		_ = store.CreateAppointment(ctx, b)
	})
}

// waitSnapshot runs action, then reads snapshots until one matches. action
// is repeated every second in case its change landed before the listener
// was back.
func waitSnapshot(t *testing.T, ch <-chan recordstore.Snapshot, match func(recordstore.Snapshot) bool, action func()) {
	t.Helper()
	action()
	deadline := time.After(15 * time.Second)
	retry := time.NewTicker(time.Second)
	defer retry.Stop()
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatal("watch closed")
			}
			if match(snap) {
				return
			}
		case <-retry.C:
			action()
		case <-deadline:
			t.Fatal("expected snapshot not delivered")
		}
	}
}

func holds(s recordstore.Snapshot, id string) bool {
	for _, a := range s.Appointments {
		if a.ID == id {
			return true
		}
	}
	return false
}
