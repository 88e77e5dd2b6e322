package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/glamflow/libs/auth"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

type staticAppointments []model.Appointment

func (s staticAppointments) Appointments() []model.Appointment { return s }

func fixedNow() time.Time { return time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC) }

func TestLoginRegistersThenVerifies(t *testing.T) {
	store := recordstore.NewMemory()
	p := New(store, staticAppointments(nil), Config{Secret: "s", Now: fixedNow})
	ctx := context.Background()

	first, err := p.Login(ctx, "09171234567", "1234")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if !first.Registered {
		t.Fatal("expected first login to register")
	}
	claims, err := auth.ParseAndVerifyHS256(first.Token, "s")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.Sub != "09171234567" || claims.Role != auth.RoleClient {
		t.Fatalf("unexpected claims %+v", claims)
	}

	second, err := p.Login(ctx, "09171234567", "1234")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.Registered {
		t.Fatal("expected returning login")
	}
	if _, err := p.Login(ctx, "09171234567", "9999"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginValidation(t *testing.T) {
	p := New(recordstore.NewMemory(), staticAppointments(nil), Config{Secret: "s"})
	if _, err := p.Login(context.Background(), "0917-123", "1234"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if _, err := p.Login(context.Background(), "09171234567", " "); !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}
}

func TestLoginStoreUnavailable(t *testing.T) {
	store := recordstore.NewMemory()
	store.FailQueries(recordstore.ErrUnavailable)
	p := New(store, staticAppointments(nil), Config{Secret: "s"})
	if _, err := p.Login(context.Background(), "09171234567", "1234"); !errors.Is(err, recordstore.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestHistorySplit(t *testing.T) {
	appts := staticAppointments{
		{ID: "a", ClientPhone: "0917", Date: "2025-03-01", Status: model.StatusConfirmed},
		{ID: "b", ClientPhone: "0917", Date: "2025-03-05", Status: model.StatusPending},
		{ID: "c", ClientPhone: "0917", Date: "2025-03-10", Status: model.StatusCancelled},
		{ID: "d", ClientPhone: "0917", Date: "2025-03-12", Status: model.StatusConfirmed},
		{ID: "e", ClientPhone: "0999", Date: "2025-03-12", Status: model.StatusConfirmed},
	}
	p := New(recordstore.NewMemory(), appts, Config{Secret: "s", Now: fixedNow})
	h := p.History("0917")

	if got := ids(h.Upcoming); got != "d,b" {
		t.Fatalf("unexpected upcoming %s", got)
	}
	if got := ids(h.Past); got != "c,a" {
		t.Fatalf("unexpected past %s", got)
	}
}

func TestHistoryEmpty(t *testing.T) {
	p := New(recordstore.NewMemory(), staticAppointments(nil), Config{Secret: "s"})
	h := p.History("0917")
	if h.Upcoming == nil || h.Past == nil {
		t.Fatal("expected empty, non-nil slices")
	}
}

func ids(appts []model.Appointment) string {
	out := ""
	for i, a := range appts {
		if i > 0 {
			out += ","
		}
		out += a.ID
	}
	return out
}
