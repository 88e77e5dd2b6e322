// Package portal handles client phone+PIN sign-in and booking history.
package portal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/md-rashed-zaman/glamflow/libs/auth"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPhone       = errors.New("phone number must have at least 10 digits")
	ErrInvalidPin         = errors.New("pin is required")
	ErrInvalidCredentials = errors.New("incorrect pin")
)

const minPhoneDigits = 10

type Clients interface {
	GetClient(ctx context.Context, phone string) (model.ClientAccount, error)
	CreateClient(ctx context.Context, c model.ClientAccount) error
}

type AppointmentSource interface {
	Appointments() []model.Appointment
}

type Config struct {
	Secret   string
	TokenTTL time.Duration
	Location *time.Location
	Now      func() time.Time
}

type Portal struct {
	clients Clients
	appts   AppointmentSource
	cfg     Config
}

func New(clients Clients, appts AppointmentSource, cfg Config) *Portal {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Portal{clients: clients, appts: appts, cfg: cfg}
}

type Session struct {
	Token      string `json:"token"`
	Phone      string `json:"phone"`
	Registered bool   `json:"registered"`
}

// Login verifies phone and PIN. An unknown phone is registered with the PIN
// it first signs in with.
func (p *Portal) Login(ctx context.Context, phone, pin string) (Session, error) {
	phone = strings.TrimSpace(phone)
	if digits(phone) < minPhoneDigits {
		return Session{}, ErrInvalidPhone
	}
	if strings.TrimSpace(pin) == "" {
		return Session{}, ErrInvalidPin
	}

	registered := false
	acct, err := p.clients.GetClient(ctx, phone)
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		acct, err = p.register(ctx, phone, pin)
		if err != nil {
			return Session{}, err
		}
		registered = true
	case err != nil:
		return Session{}, err
	default:
		if err := bcrypt.CompareHashAndPassword(acct.PinHash, []byte(pin)); err != nil {
			return Session{}, ErrInvalidCredentials
		}
	}

	token, err := auth.Issue(acct.Phone, auth.RoleClient, p.cfg.TokenTTL, p.cfg.Secret)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, Phone: acct.Phone, Registered: registered}, nil
}

func (p *Portal) register(ctx context.Context, phone, pin string) (model.ClientAccount, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return model.ClientAccount{}, err
	}
	acct := model.ClientAccount{Phone: phone, PinHash: hash, CreatedAt: p.cfg.Now().UTC()}
	err = p.clients.CreateClient(ctx, acct)
	if errors.Is(err, recordstore.ErrDuplicateID) {
		// Registered concurrently; the PIN must match the winner's.
		existing, getErr := p.clients.GetClient(ctx, phone)
		if getErr != nil {
			return model.ClientAccount{}, getErr
		}
		if bcrypt.CompareHashAndPassword(existing.PinHash, []byte(pin)) != nil {
			return model.ClientAccount{}, ErrInvalidCredentials
		}
		return existing, nil
	}
	if err != nil {
		return model.ClientAccount{}, err
	}
	return acct, nil
}

type History struct {
	Upcoming []model.Appointment `json:"upcoming"`
	Past     []model.Appointment `json:"past"`
}

// History returns the client's appointments newest date first. Cancelled
// bookings always count as past.
func (p *Portal) History(phone string) History {
	today := p.cfg.Now().In(p.cfg.Location).Format(model.DateLayout)
	mine := make([]model.Appointment, 0)
	for _, a := range p.appts.Appointments() {
		if a.ClientPhone == phone {
			mine = append(mine, a)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].Date > mine[j].Date })

	h := History{Upcoming: []model.Appointment{}, Past: []model.Appointment{}}
	for _, a := range mine {
		if a.Date >= today && a.Holds() {
			h.Upcoming = append(h.Upcoming, a)
		} else {
			h.Past = append(h.Past, a)
		}
	}
	return h
}

func digits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
